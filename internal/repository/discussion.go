// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/policy"

	"gorm.io/gorm"
)

// DiscussionRepository defines the interface for discussion data operations
type DiscussionRepository interface {
	Create(ctx context.Context, discussion *models.Discussion) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Discussion, error)
	GetByCode(ctx context.Context, code string, currentUserID uint) (*models.Discussion, error)
	ListByCategory(ctx context.Context, categoryID uint, limit, offset int, viewer policy.Viewer) ([]*models.Discussion, error)
	Update(ctx context.Context, discussion *models.Discussion) error
	UpdateState(ctx context.Context, id uint, state models.DiscussionState) error
	IncrementViewCount(ctx context.Context, id uint) error
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository creates a new discussion repository
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) Create(ctx context.Context, discussion *models.Discussion) error {
	return r.db.WithContext(ctx).Create(discussion).Error
}

// applyDiscussionDetails adds subqueries to fetch the like count and liked
// status in a single query.
func (r *discussionRepository) applyDiscussionDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "discussions.*, " +
		"(SELECT COUNT(*) FROM discussion_likes WHERE discussion_likes.discussion_id = discussions.id) as like_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM discussion_likes WHERE discussion_likes.discussion_id = discussions.id AND discussion_likes.user_id = ?) as has_user_liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as has_user_liked")
}

func (r *discussionRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Discussion, error) {
	var discussion models.Discussion

	var err error
	if currentUserID == 0 {
		// Anonymous detail reads are viewer-independent and safe to cache.
		err = cache.Aside(ctx, cache.DiscussionKey(id), &discussion, cache.DiscussionTTL, func() error {
			return r.applyDiscussionDetails(r.db.WithContext(ctx), 0).
				Preload("User").
				Preload("Category").
				First(&discussion, id).Error
		})
	} else {
		err = r.applyDiscussionDetails(r.db.WithContext(ctx), currentUserID).
			Preload("User").
			Preload("Category").
			First(&discussion, id).Error
	}
	if err != nil {
		return nil, err
	}
	return &discussion, nil
}

func (r *discussionRepository) GetByCode(ctx context.Context, code string, currentUserID uint) (*models.Discussion, error) {
	var discussion models.Discussion
	err := r.applyDiscussionDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Category").
		Where("discussions.code = ?", code).
		First(&discussion).Error
	if err != nil {
		return nil, err
	}
	return &discussion, nil
}

// ListByCategory returns the visible page of a category's discussions, pinned
// ones first, then newest first. Visibility must also be filtered in SQL so
// pagination windows stay correct.
func (r *discussionRepository) ListByCategory(ctx context.Context, categoryID uint, limit, offset int, viewer policy.Viewer) ([]*models.Discussion, error) {
	var discussions []*models.Discussion

	q := r.applyDiscussionDetails(r.db.WithContext(ctx), viewer.UserID).
		Preload("User").
		Where("discussions.category_id = ?", categoryID).
		Where("discussions.state <> ?", models.DiscussionDeleted)

	if !viewer.IsAdmin {
		q = q.Where("discussions.state <> ? OR discussions.user_id = ?", models.DiscussionHidden, viewer.UserID)
	}

	err := q.
		Order("CASE WHEN discussions.state = 'Top' THEN 0 ELSE 1 END").
		Order("discussions.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&discussions).Error
	return discussions, err
}

func (r *discussionRepository) Update(ctx context.Context, discussion *models.Discussion) error {
	if err := r.db.WithContext(ctx).Save(discussion).Error; err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.DiscussionKey(discussion.ID))
	return nil
}

func (r *discussionRepository) UpdateState(ctx context.Context, id uint, state models.DiscussionState) error {
	res := r.db.WithContext(ctx).
		Model(&models.Discussion{}).
		Where("id = ?", id).
		UpdateColumn("state", state)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.Invalidate(ctx, cache.DiscussionKey(id))
	return nil
}

// IncrementViewCount bumps the counter in a single UPDATE statement so
// concurrent requests never lose increments to a read-modify-write race.
func (r *discussionRepository) IncrementViewCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Discussion{}).
		Where("id = ? AND state <> ?", id, models.DiscussionDeleted).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.Invalidate(ctx, cache.DiscussionKey(id))
	return nil
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
