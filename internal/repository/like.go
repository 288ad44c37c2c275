package repository

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// LikeRepository is the persistence side of the like ledger. Non-admin
// duplicate protection is pushed down to the database: inserts target the
// partial unique index on (user_id, target_id) WHERE NOT admin, so two
// concurrent identical requests can never produce two rows.
type LikeRepository interface {
	AddDiscussionLike(ctx context.Context, discussionID, userID uint, admin bool) (inserted bool, err error)
	CountDiscussionLikes(ctx context.Context, discussionID uint) (int64, error)
	HasDiscussionLike(ctx context.Context, discussionID, userID uint) (bool, error)
	AddCommentLike(ctx context.Context, commentID, userID uint, admin bool) (inserted bool, err error)
	CountCommentLikes(ctx context.Context, commentID uint) (int64, error)
	HasCommentLike(ctx context.Context, commentID, userID uint) (bool, error)
	ListCommentLikesByDiscussion(ctx context.Context, discussionID uint) ([]models.CommentLike, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) AddDiscussionLike(ctx context.Context, discussionID, userID uint, admin bool) (bool, error) {
	if admin {
		// Admins are exempt from the one-like cap; every call adds a row.
		err := r.db.WithContext(ctx).Create(&models.DiscussionLike{
			DiscussionID: discussionID,
			UserID:       userID,
			Admin:        true,
		}).Error
		if err == nil {
			cache.Invalidate(ctx, cache.DiscussionKey(discussionID))
		}
		return err == nil, err
	}

	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO discussion_likes (discussion_id, user_id, admin, created_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, discussion_id) WHERE NOT admin DO NOTHING`,
		discussionID, userID, false,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		cache.Invalidate(ctx, cache.DiscussionKey(discussionID))
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) CountDiscussionLikes(ctx context.Context, discussionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscussionLike{}).
		Where("discussion_id = ?", discussionID).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) HasDiscussionLike(ctx context.Context, discussionID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscussionLike{}).
		Where("discussion_id = ? AND user_id = ?", discussionID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) AddCommentLike(ctx context.Context, commentID, userID uint, admin bool) (bool, error) {
	if admin {
		err := r.db.WithContext(ctx).Create(&models.CommentLike{
			CommentID: commentID,
			UserID:    userID,
			Admin:     true,
		}).Error
		return err == nil, err
	}

	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO comment_likes (comment_id, user_id, admin, created_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, comment_id) WHERE NOT admin DO NOTHING`,
		commentID, userID, false,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) CountCommentLikes(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) HasCommentLike(ctx context.Context, commentID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListCommentLikesByDiscussion loads the like rows for every comment of a
// discussion in one query, for the tree builder's per-node annotations.
func (r *likeRepository) ListCommentLikesByDiscussion(ctx context.Context, discussionID uint) ([]models.CommentLike, error) {
	var likes []models.CommentLike
	err := r.db.WithContext(ctx).
		Joins("JOIN comments ON comments.id = comment_likes.comment_id").
		Where("comments.discussion_id = ?", discussionID).
		Find(&likes).Error
	return likes, err
}
