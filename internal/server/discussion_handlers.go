package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.discussionService.ListCategories(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(categories)
}

// GetDiscussions handles GET /api/discussions?categoryId=...
func (s *Server) GetDiscussions(c *fiber.Ctx) error {
	ctx := c.Context()
	categoryID := c.QueryInt("categoryId")
	if categoryID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("categoryId query parameter is required"))
	}

	page := parsePagination(c, 20)
	discussions, err := s.discussionService.ListDiscussions(ctx, service.ListDiscussionsInput{
		CategoryID:    uint(categoryID),
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: s.optionalUserID(c),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(discussions)
}

// GetDiscussion handles GET /api/discussions/:id
func (s *Server) GetDiscussion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.discussionService.GetDiscussion(c.Context(), id, s.optionalUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// GetDiscussionByCode handles GET /api/discussions/byCode/:code
func (s *Server) GetDiscussionByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Discussion code is required"))
	}

	detail, err := s.discussionService.GetDiscussionByCode(c.Context(), code, s.optionalUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// CreateDiscussion handles POST /api/discussions
func (s *Server) CreateDiscussion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		CategoryID uint   `json:"category_id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
		State      string `json:"state,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	detail, err := s.discussionService.CreateDiscussion(c.Context(), service.CreateDiscussionInput{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
		State:      models.DiscussionState(req.State),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// UpdateDiscussion handles PUT /api/discussions/:id
func (s *Server) UpdateDiscussion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	detail, err := s.discussionService.UpdateDiscussion(c.Context(), service.UpdateDiscussionInput{
		UserID:       userID,
		DiscussionID: id,
		Title:        req.Title,
		Content:      req.Content,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// DeleteDiscussion handles DELETE /api/discussions/:id
func (s *Server) DeleteDiscussion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.discussionService.DeleteDiscussion(c.Context(), id, userID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Discussion deleted"})
}

// ToggleTop handles PUT /api/discussions/:id/toggle-top
func (s *Server) ToggleTop(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	discussion, err := s.discussionService.ToggleTop(c.Context(), id, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(discussion)
}

// ToggleVisibility handles PUT /api/discussions/:id/toggle-visibility
func (s *Server) ToggleVisibility(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	discussion, err := s.discussionService.ToggleVisibility(c.Context(), id, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(discussion)
}

// IncrementViewCount handles POST /api/discussions/:id/increment-view-count
func (s *Server) IncrementViewCount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.discussionService.RecordView(c.Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "View recorded"})
}
