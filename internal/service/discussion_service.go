// Package service implements the application's business rules on top of the
// repository layer. Handlers translate HTTP to service calls and back.
package service

import (
	"context"
	"strings"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/sanitize"

	"github.com/google/uuid"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
)

// DiscussionService coordinates discussion reads and writes, including the
// assembled detail view with its two-level comment tree.
type DiscussionService struct {
	discussionRepo repository.DiscussionRepository
	commentRepo    repository.CommentRepository
	likeRepo       repository.LikeRepository
	categoryRepo   repository.CategoryRepository
	isAdmin        func(ctx context.Context, userID uint) (bool, error)
}

// CommentNode is one comment of the detail view with its like annotations and,
// for root comments, the visible replies beneath it.
type CommentNode struct {
	*models.Comment
	LikeCount    int            `json:"like_count"`
	HasUserLiked bool           `json:"has_user_liked"`
	CanUserLike  bool           `json:"can_user_like"`
	Replies      []*CommentNode `json:"replies,omitempty"`
}

// DiscussionDetail is the full read model for one discussion.
type DiscussionDetail struct {
	Discussion *models.Discussion `json:"discussion"`
	Comments   []*CommentNode     `json:"comments"`
}

type CreateDiscussionInput struct {
	UserID     uint
	CategoryID uint
	Title      string
	Content    string
	State      models.DiscussionState
}

type UpdateDiscussionInput struct {
	UserID       uint
	DiscussionID uint
	Title        string
	Content      string
}

type ListDiscussionsInput struct {
	CategoryID    uint
	Limit         int
	Offset        int
	CurrentUserID uint
}

func NewDiscussionService(
	discussionRepo repository.DiscussionRepository,
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	categoryRepo repository.CategoryRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *DiscussionService {
	return &DiscussionService{
		discussionRepo: discussionRepo,
		commentRepo:    commentRepo,
		likeRepo:       likeRepo,
		categoryRepo:   categoryRepo,
		isAdmin:        isAdmin,
	}
}

func (s *DiscussionService) viewer(ctx context.Context, userID uint) (policy.Viewer, error) {
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

// ListCategories returns all categories in display order.
func (s *DiscussionService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categoryRepo.List(ctx)
}

// ListDiscussions returns the visible page of a category's discussions with
// like annotations for the current user.
func (s *DiscussionService) ListDiscussions(ctx context.Context, in ListDiscussionsInput) ([]*models.Discussion, error) {
	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Category", in.CategoryID)
		}
		return nil, err
	}

	v, err := s.viewer(ctx, in.CurrentUserID)
	if err != nil {
		return nil, err
	}

	discussions, err := s.discussionRepo.ListByCategory(ctx, in.CategoryID, in.Limit, in.Offset, v)
	if err != nil {
		return nil, err
	}
	for _, d := range discussions {
		d.CanUserLike = policy.CanLike(d.UserID, v, d.HasUserLiked)
	}
	return discussions, nil
}

// GetDiscussion returns the detail view for one discussion, including its
// comment tree. Discussions the viewer may not see surface as not found.
func (s *DiscussionService) GetDiscussion(ctx context.Context, id uint, currentUserID uint) (*DiscussionDetail, error) {
	discussion, err := s.discussionRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", id)
		}
		return nil, err
	}
	return s.assembleDetail(ctx, discussion, currentUserID)
}

// GetDiscussionByCode resolves a discussion by its share code.
func (s *DiscussionService) GetDiscussionByCode(ctx context.Context, code string, currentUserID uint) (*DiscussionDetail, error) {
	discussion, err := s.discussionRepo.GetByCode(ctx, code, currentUserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", code)
		}
		return nil, err
	}
	return s.assembleDetail(ctx, discussion, currentUserID)
}

func (s *DiscussionService) assembleDetail(ctx context.Context, discussion *models.Discussion, currentUserID uint) (*DiscussionDetail, error) {
	v, err := s.viewer(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Discussion", discussion.ID)
	}
	discussion.CanUserLike = policy.CanLike(discussion.UserID, v, discussion.HasUserLiked)

	comments, err := s.commentRepo.ListByDiscussion(ctx, discussion.ID)
	if err != nil {
		return nil, err
	}
	likes, err := s.likeRepo.ListCommentLikesByDiscussion(ctx, discussion.ID)
	if err != nil {
		return nil, err
	}

	return &DiscussionDetail{
		Discussion: discussion,
		Comments:   buildCommentTree(comments, likes, v),
	}, nil
}

// buildCommentTree partitions flat comments into visible roots with their
// visible replies. Replies whose root is filtered out are dropped with it.
func buildCommentTree(comments []*models.Comment, likes []models.CommentLike, v policy.Viewer) []*CommentNode {
	likeCounts := make(map[uint]int)
	likedByViewer := make(map[uint]bool)
	for _, l := range likes {
		likeCounts[l.CommentID]++
		if v.Authenticated() && l.UserID == v.UserID {
			likedByViewer[l.CommentID] = true
		}
	}

	newNode := func(c *models.Comment) *CommentNode {
		return &CommentNode{
			Comment:      c,
			LikeCount:    likeCounts[c.ID],
			HasUserLiked: likedByViewer[c.ID],
			CanUserLike:  policy.CanLike(c.UserID, v, likedByViewer[c.ID]),
		}
	}

	roots := make([]*CommentNode, 0)
	rootByID := make(map[uint]*CommentNode)
	for _, c := range comments {
		if !c.IsRoot() {
			continue
		}
		if !policy.CommentVisible(c.State, c.UserID, v) {
			continue
		}
		node := newNode(c)
		roots = append(roots, node)
		rootByID[c.ID] = node
	}

	for _, c := range comments {
		if c.IsRoot() {
			continue
		}
		if !policy.CommentVisible(c.State, c.UserID, v) {
			continue
		}
		root, ok := rootByID[*c.ParentCommentID]
		if !ok {
			// Root was filtered; its subtree goes with it.
			continue
		}
		root.Replies = append(root.Replies, newNode(c))
	}

	return roots
}

// CreateDiscussion validates and persists a new discussion. The share code is
// minted here; content is sanitized before it is stored.
func (s *DiscussionService) CreateDiscussion(ctx context.Context, in CreateDiscussionInput) (*DiscussionDetail, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	title := strings.TrimSpace(sanitize.Text(in.Title))
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	content := sanitize.HTML(in.Content)
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	state := in.State
	if state == "" {
		state = models.DiscussionNormal
	}
	if !state.Valid() {
		return nil, models.NewValidationError("Invalid discussion state")
	}
	switch state {
	case models.DiscussionNormal, models.DiscussionPrivate:
		// anyone may create these
	default:
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewUnauthorizedError("Only admins may create discussions in this state")
		}
	}

	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewForeignReferenceError("Category does not exist")
		}
		return nil, err
	}

	discussion := &models.Discussion{
		Code:       uuid.NewString(),
		CategoryID: in.CategoryID,
		UserID:     in.UserID,
		Title:      title,
		Content:    content,
		State:      state,
		VoteType:   models.PollNone,
	}
	if err := s.discussionRepo.Create(ctx, discussion); err != nil {
		return nil, err
	}
	return s.GetDiscussion(ctx, discussion.ID, in.UserID)
}

// UpdateDiscussion edits title and content. Owner or admin only.
func (s *DiscussionService) UpdateDiscussion(ctx context.Context, in UpdateDiscussionInput) (*DiscussionDetail, error) {
	discussion, err := s.discussionRepo.GetByID(ctx, in.DiscussionID, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", in.DiscussionID)
		}
		return nil, err
	}

	v, err := s.viewer(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Discussion", in.DiscussionID)
	}
	if !policy.CanEdit(discussion.UserID, v) {
		return nil, models.NewUnauthorizedError("You cannot edit this discussion")
	}

	title := strings.TrimSpace(sanitize.Text(in.Title))
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	content := sanitize.HTML(in.Content)
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	discussion.Title = title
	discussion.Content = content
	if err := s.discussionRepo.Update(ctx, discussion); err != nil {
		return nil, err
	}
	return s.GetDiscussion(ctx, discussion.ID, in.UserID)
}

// DeleteDiscussion marks a discussion deleted. The row stays; every read path
// treats the state as nonexistence.
func (s *DiscussionService) DeleteDiscussion(ctx context.Context, discussionID, userID uint) error {
	discussion, err := s.discussionRepo.GetByID(ctx, discussionID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundError("Discussion", discussionID)
		}
		return err
	}

	v, err := s.viewer(ctx, userID)
	if err != nil {
		return err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) || discussion.State == models.DiscussionDeleted {
		return models.NewNotFoundError("Discussion", discussionID)
	}
	if !policy.CanEdit(discussion.UserID, v) {
		return models.NewUnauthorizedError("You cannot delete this discussion")
	}

	return s.discussionRepo.UpdateState(ctx, discussionID, models.DiscussionDeleted)
}

// ToggleTop pins or unpins a discussion. Admin only; only Normal and Top
// states participate.
func (s *DiscussionService) ToggleTop(ctx context.Context, discussionID, adminUserID uint) (*models.Discussion, error) {
	return s.adminToggle(ctx, discussionID, adminUserID, func(state models.DiscussionState) (models.DiscussionState, error) {
		switch state {
		case models.DiscussionNormal:
			return models.DiscussionTop, nil
		case models.DiscussionTop:
			return models.DiscussionNormal, nil
		default:
			return "", models.NewInvalidStateError("Only normal discussions can be pinned")
		}
	})
}

// ToggleVisibility hides a discussion from general listings or restores it.
// Admin only. Pinned discussions lose their pin when hidden.
func (s *DiscussionService) ToggleVisibility(ctx context.Context, discussionID, adminUserID uint) (*models.Discussion, error) {
	return s.adminToggle(ctx, discussionID, adminUserID, func(state models.DiscussionState) (models.DiscussionState, error) {
		switch state {
		case models.DiscussionHidden:
			return models.DiscussionNormal, nil
		case models.DiscussionNormal, models.DiscussionTop, models.DiscussionPrivate:
			return models.DiscussionHidden, nil
		default:
			return "", models.NewInvalidStateError("Deleted discussions cannot change visibility")
		}
	})
}

func (s *DiscussionService) adminToggle(
	ctx context.Context,
	discussionID, adminUserID uint,
	transition func(models.DiscussionState) (models.DiscussionState, error),
) (*models.Discussion, error) {
	admin, err := s.isAdmin(ctx, adminUserID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewUnauthorizedError("Admin privileges required")
	}

	discussion, err := s.discussionRepo.GetByID(ctx, discussionID, adminUserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Discussion", discussionID)
		}
		return nil, err
	}
	if discussion.State == models.DiscussionDeleted {
		return nil, models.NewNotFoundError("Discussion", discussionID)
	}

	next, err := transition(discussion.State)
	if err != nil {
		return nil, err
	}
	if err := s.discussionRepo.UpdateState(ctx, discussionID, next); err != nil {
		return nil, err
	}
	discussion.State = next
	return discussion, nil
}

// RecordView bumps the view counter. Every detail read counts, including
// repeat reads by the same user.
func (s *DiscussionService) RecordView(ctx context.Context, discussionID uint) error {
	err := s.discussionRepo.IncrementViewCount(ctx, discussionID)
	if err != nil && repository.IsNotFound(err) {
		return models.NewNotFoundError("Discussion", discussionID)
	}
	return err
}
