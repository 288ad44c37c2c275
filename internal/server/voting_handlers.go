package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetVoting handles GET /api/votings/discussion/:id
func (s *Server) GetVoting(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.votingService.GetVoting(c.Context(), id, s.optionalUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// UpsertVoting handles POST /api/votings
func (s *Server) UpsertVoting(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		DiscussionID uint                          `json:"discussion_id"`
		State        string                        `json:"state"`
		Questions    []service.VotingQuestionInput `json:"questions"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.DiscussionID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("discussion_id is required"))
	}

	detail, err := s.votingService.UpsertVoting(c.Context(), service.UpsertVotingInput{
		DiscussionID: req.DiscussionID,
		UserID:       userID,
		State:        models.PollState(req.State),
		Questions:    req.Questions,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// SetPollState handles PUT /api/votings/discussion/:id/status?voteType=...
func (s *Server) SetPollState(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	voteType := models.PollState(c.Query("voteType"))
	if !voteType.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("voteType query parameter must be one of None, Visible, Closed, Hidden"))
	}

	detail, err := s.votingService.SetPollState(c.Context(), id, userID, voteType)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

// SubmitVotes handles POST /api/votings/submit
func (s *Server) SubmitVotes(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		DiscussionID uint          `json:"discussion_id"`
		Answers      map[uint]bool `json:"answers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.DiscussionID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("discussion_id is required"))
	}

	detail, err := s.votingService.SubmitVotes(c.Context(), service.SubmitVotesInput{
		DiscussionID: req.DiscussionID,
		UserID:       userID,
		Answers:      req.Answers,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}
