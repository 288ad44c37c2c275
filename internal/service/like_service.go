package service

import (
	"context"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

// LikeResult is the post-like snapshot returned to the caller.
type LikeResult struct {
	LikeCount    int64 `json:"like_count"`
	HasUserLiked bool  `json:"has_user_liked"`
	CanUserLike  bool  `json:"can_user_like"`
}

// LikeService enforces who may like what. Non-admin users get one like per
// target and cannot like their own content; admins are exempt from both caps.
// The duplicate check for non-admins is ultimately the database's partial
// unique index, so racing requests collapse to a single inserted row.
type LikeService struct {
	likeRepo       repository.LikeRepository
	discussionRepo repository.DiscussionRepository
	commentRepo    repository.CommentRepository
	isAdmin        func(ctx context.Context, userID uint) (bool, error)
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	discussionRepo repository.DiscussionRepository,
	commentRepo repository.CommentRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *LikeService {
	return &LikeService{
		likeRepo:       likeRepo,
		discussionRepo: discussionRepo,
		commentRepo:    commentRepo,
		isAdmin:        isAdmin,
	}
}

func (s *LikeService) viewer(ctx context.Context, userID uint) (policy.Viewer, error) {
	v := policy.Viewer{UserID: userID}
	if userID == 0 {
		return v, nil
	}
	admin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return v, err
	}
	v.IsAdmin = admin
	return v, nil
}

// LikeDiscussion records a like on a discussion for userID.
func (s *LikeService) LikeDiscussion(ctx context.Context, discussionID, userID uint) (*LikeResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	v, err := s.viewer(ctx, userID)
	if err != nil {
		return nil, err
	}

	discussion, err := s.discussionRepo.GetByID(ctx, discussionID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", discussionID)
		}
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Discussion", discussionID)
	}

	if !v.IsAdmin {
		if discussion.UserID == userID {
			return nil, models.NewUnauthorizedError("You cannot like your own discussion")
		}
		if discussion.HasUserLiked {
			middleware.LikeConflicts.WithLabelValues("discussion").Inc()
			return nil, models.NewConflictError("You have already liked this discussion")
		}
	}

	inserted, err := s.likeRepo.AddDiscussionLike(ctx, discussionID, userID, v.IsAdmin)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost a race with an identical request; the index kept one row.
		middleware.LikeConflicts.WithLabelValues("discussion").Inc()
		return nil, models.NewConflictError("You have already liked this discussion")
	}

	return s.discussionLikeResult(ctx, discussionID, discussion.UserID, v)
}

func (s *LikeService) discussionLikeResult(ctx context.Context, discussionID, ownerID uint, v policy.Viewer) (*LikeResult, error) {
	count, err := s.likeRepo.CountDiscussionLikes(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	liked, err := s.likeRepo.HasDiscussionLike(ctx, discussionID, v.UserID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{
		LikeCount:    count,
		HasUserLiked: liked,
		CanUserLike:  policy.CanLike(ownerID, v, liked),
	}, nil
}

// LikeComment records a like on a comment for userID. The comment's
// discussion must be visible to the user as well.
func (s *LikeService) LikeComment(ctx context.Context, commentID, userID uint) (*LikeResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	v, err := s.viewer(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, err
	}
	if !policy.CommentVisible(comment.State, comment.UserID, v) {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	discussion, err := s.discussionRepo.GetByID(ctx, comment.DiscussionID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	if !v.IsAdmin {
		if comment.UserID == userID {
			return nil, models.NewUnauthorizedError("You cannot like your own comment")
		}
		liked, err := s.likeRepo.HasCommentLike(ctx, commentID, userID)
		if err != nil {
			return nil, err
		}
		if liked {
			middleware.LikeConflicts.WithLabelValues("comment").Inc()
			return nil, models.NewConflictError("You have already liked this comment")
		}
	}

	inserted, err := s.likeRepo.AddCommentLike(ctx, commentID, userID, v.IsAdmin)
	if err != nil {
		return nil, err
	}
	if !inserted {
		middleware.LikeConflicts.WithLabelValues("comment").Inc()
		return nil, models.NewConflictError("You have already liked this comment")
	}

	count, err := s.likeRepo.CountCommentLikes(ctx, commentID)
	if err != nil {
		return nil, err
	}
	liked, err := s.likeRepo.HasCommentLike(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{
		LikeCount:    count,
		HasUserLiked: liked,
		CanUserLike:  policy.CanLike(comment.UserID, v, liked),
	}, nil
}
