package service

import (
	"context"
	"strings"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/sanitize"
)

const maxCommentLen = 10000

// CommentService handles root comments and replies. The comment tree is
// capped at two levels: replying to a reply is rejected outright.
type CommentService struct {
	commentRepo    repository.CommentRepository
	discussionRepo repository.DiscussionRepository
	isAdmin        func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	DiscussionID    uint
	UserID          uint
	Content         string
	ParentCommentID *uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	discussionRepo repository.DiscussionRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		discussionRepo: discussionRepo,
		isAdmin:        isAdmin,
	}
}

func (s *CommentService) viewer(ctx context.Context, userID uint) (policy.Viewer, error) {
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

// CreateComment adds a root comment or a reply to a discussion.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	content := sanitize.HTML(in.Content)
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}

	v, err := s.viewer(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	discussion, err := s.discussionRepo.GetByID(ctx, in.DiscussionID, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", in.DiscussionID)
		}
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Discussion", in.DiscussionID)
	}

	if in.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, models.NewNotFoundError("Comment", *in.ParentCommentID)
			}
			return nil, err
		}
		if !policy.CommentVisible(parent.State, parent.UserID, v) {
			return nil, models.NewNotFoundError("Comment", *in.ParentCommentID)
		}
		if parent.DiscussionID != in.DiscussionID {
			return nil, models.NewForeignReferenceError("Parent comment belongs to a different discussion")
		}
		if !parent.IsRoot() {
			return nil, models.NewConflictError("Replies to replies are not allowed")
		}
	}

	comment := &models.Comment{
		DiscussionID:    in.DiscussionID,
		UserID:          in.UserID,
		ParentCommentID: in.ParentCommentID,
		Content:         content,
		State:           models.CommentNormal,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment marks a comment deleted. Author or admin only. Deleting a
// root comment hides its whole subtree from the assembled view.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	if userID == 0 {
		return models.NewUnauthenticatedError("Authentication required")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundError("Comment", commentID)
		}
		return err
	}

	v, err := s.viewer(ctx, userID)
	if err != nil {
		return err
	}
	if !policy.CommentVisible(comment.State, comment.UserID, v) {
		return models.NewNotFoundError("Comment", commentID)
	}
	if !policy.CanEdit(comment.UserID, v) {
		return models.NewUnauthorizedError("You cannot delete this comment")
	}

	comment.State = models.CommentDeleted
	return s.commentRepo.Update(ctx, comment)
}
