package server

import (
	"github.com/gofiber/fiber/v2"
)

// LikeDiscussion handles POST /api/discussions/:id/like
func (s *Server) LikeDiscussion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.LikeDiscussion(c.Context(), id, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

// LikeComment handles POST /api/discussions/:id/comments/:commentId/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	result, err := s.likeService.LikeComment(c.Context(), commentID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}
