package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/discussions/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	discussionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		DiscussionID: discussionID,
		UserID:       userID,
		Content:      req.Content,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CreateReply handles POST /api/discussions/:id/comments/:commentId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	discussionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	parentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		DiscussionID:    discussionID,
		UserID:          userID,
		Content:         req.Content,
		ParentCommentID: &parentID,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/discussions/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), commentID, userID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
