package service

import (
	"context"
	"sort"
	"strings"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/policy"
	"agora/internal/sanitize"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// VotingService owns a discussion's yes/no poll: its questions, its state and
// every vote. It is the sole writer of the per-question tallies; all mutations
// run in a transaction so yes_votes + no_votes always equals the number of
// vote rows once the transaction commits.
type VotingService struct {
	db      *gorm.DB
	isAdmin func(ctx context.Context, userID uint) (bool, error)
}

// VotingQuestionInput defines one question when creating or updating a poll.
// A nil ID is a new question; a set ID updates the existing one in place and
// keeps its recorded votes.
type VotingQuestionInput struct {
	ID           *uint  `json:"id,omitempty"`
	Text         string `json:"text"`
	DisplayOrder int    `json:"display_order"`
}

// VotingQuestionView is one question with the requesting user's own answer.
type VotingQuestionView struct {
	models.VotingQuestion
	UserVote *bool `json:"user_vote,omitempty"`
}

// VotingDetail is a poll read model.
type VotingDetail struct {
	DiscussionID uint                 `json:"discussion_id"`
	State        models.PollState     `json:"state"`
	Questions    []VotingQuestionView `json:"questions"`
}

type UpsertVotingInput struct {
	DiscussionID uint
	UserID       uint
	State        models.PollState
	Questions    []VotingQuestionInput
}

type SubmitVotesInput struct {
	DiscussionID uint
	UserID       uint
	// Answers maps question ID to the yes/no answer. Questions absent from
	// the map have the user's previous answer retracted.
	Answers map[uint]bool
}

func NewVotingService(db *gorm.DB, isAdmin func(ctx context.Context, userID uint) (bool, error)) *VotingService {
	return &VotingService{db: db, isAdmin: isAdmin}
}

func (s *VotingService) viewer(ctx context.Context, userID uint) (policy.Viewer, error) {
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

func (s *VotingService) loadDiscussion(ctx context.Context, tx *gorm.DB, discussionID uint, v policy.Viewer) (*models.Discussion, error) {
	var discussion models.Discussion
	if err := tx.WithContext(ctx).First(&discussion, discussionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Discussion", discussionID)
		}
		return nil, err
	}
	if !policy.DiscussionVisible(discussion.State, discussion.UserID, v) {
		return nil, models.NewNotFoundError("Discussion", discussionID)
	}
	return &discussion, nil
}

// GetVoting returns the poll of a discussion. A poll in state None does not
// exist for readers; a Hidden poll is visible only to the discussion owner
// and admins.
func (s *VotingService) GetVoting(ctx context.Context, discussionID, currentUserID uint) (*VotingDetail, error) {
	v, err := s.viewer(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	discussion, err := s.loadDiscussion(ctx, s.db, discussionID, v)
	if err != nil {
		return nil, err
	}

	switch discussion.VoteType {
	case models.PollNone:
		return nil, models.NewNotFoundError("Poll for discussion", discussionID)
	case models.PollHidden:
		if !v.IsAdmin && v.UserID != discussion.UserID {
			return nil, models.NewNotFoundError("Poll for discussion", discussionID)
		}
	}

	return s.detail(ctx, s.db, discussion, currentUserID)
}

func (s *VotingService) detail(ctx context.Context, tx *gorm.DB, discussion *models.Discussion, currentUserID uint) (*VotingDetail, error) {
	var questions []models.VotingQuestion
	if err := tx.WithContext(ctx).
		Where("discussion_id = ?", discussion.ID).
		Order("display_order asc, id asc").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	userVotes := make(map[uint]bool)
	if currentUserID != 0 && len(questions) > 0 {
		ids := make([]uint, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}
		var votes []models.Vote
		if err := tx.WithContext(ctx).
			Where("voting_question_id IN ? AND user_id = ?", ids, currentUserID).
			Find(&votes).Error; err != nil {
			return nil, err
		}
		for _, vote := range votes {
			userVotes[vote.VotingQuestionID] = vote.Value
		}
	}

	views := make([]VotingQuestionView, len(questions))
	for i, q := range questions {
		views[i] = VotingQuestionView{VotingQuestion: q}
		if value, ok := userVotes[q.ID]; ok {
			value := value
			views[i].UserVote = &value
		}
	}

	return &VotingDetail{
		DiscussionID: discussion.ID,
		State:        discussion.VoteType,
		Questions:    views,
	}, nil
}

// UpsertVoting creates or reshapes a discussion's poll: its state and its
// question set in one transaction. Questions carrying an ID are edited in
// place, questions omitted are removed along with their votes, and new
// questions start with zero tallies. Owner or admin only.
func (s *VotingService) UpsertVoting(ctx context.Context, in UpsertVotingInput) (*VotingDetail, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if !in.State.Valid() {
		return nil, models.NewValidationError("Invalid poll state")
	}
	if in.State == models.PollNone && len(in.Questions) > 0 {
		return nil, models.NewValidationError("A poll in state None cannot have questions")
	}
	if in.State != models.PollNone && len(in.Questions) == 0 {
		return nil, models.NewValidationError("A poll needs at least one question")
	}
	for i := range in.Questions {
		in.Questions[i].Text = strings.TrimSpace(sanitize.Text(in.Questions[i].Text))
		if in.Questions[i].Text == "" {
			return nil, models.NewValidationError("Question text is required")
		}
	}

	v, err := s.viewer(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "voting.upsert")
	defer span.End()
	span.AddAttributes(attribute.Int("discussion.id", int(in.DiscussionID)))

	var out *VotingDetail
	err = s.db.Transaction(func(tx *gorm.DB) error {
		discussion, err := s.loadDiscussion(ctx, tx, in.DiscussionID, v)
		if err != nil {
			return err
		}
		if !policy.CanEdit(discussion.UserID, v) {
			return models.NewUnauthorizedError("You cannot manage this discussion's poll")
		}

		var existing []models.VotingQuestion
		if err := tx.WithContext(ctx).
			Where("discussion_id = ?", in.DiscussionID).
			Find(&existing).Error; err != nil {
			return err
		}
		existingByID := make(map[uint]models.VotingQuestion, len(existing))
		for _, q := range existing {
			existingByID[q.ID] = q
		}

		kept := make(map[uint]bool)
		for _, qin := range in.Questions {
			if qin.ID != nil {
				prev, ok := existingByID[*qin.ID]
				if !ok || prev.DiscussionID != in.DiscussionID {
					return models.NewForeignReferenceError("Question does not belong to this poll")
				}
				kept[*qin.ID] = true
				if err := tx.WithContext(ctx).
					Model(&models.VotingQuestion{}).
					Where("id = ?", *qin.ID).
					Updates(map[string]any{
						"text":          qin.Text,
						"display_order": qin.DisplayOrder,
					}).Error; err != nil {
					return err
				}
				continue
			}
			q := models.VotingQuestion{
				DiscussionID: in.DiscussionID,
				Text:         qin.Text,
				DisplayOrder: qin.DisplayOrder,
			}
			if err := tx.WithContext(ctx).Create(&q).Error; err != nil {
				return err
			}
		}

		// Remove dropped questions and their votes together.
		for _, q := range existing {
			if kept[q.ID] {
				continue
			}
			if err := tx.WithContext(ctx).
				Where("voting_question_id = ?", q.ID).
				Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Delete(&models.VotingQuestion{}, q.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).
			Model(&models.Discussion{}).
			Where("id = ?", in.DiscussionID).
			UpdateColumn("vote_type", in.State).Error; err != nil {
			return err
		}
		discussion.VoteType = in.State

		out, err = s.detail(ctx, tx, discussion, in.UserID)
		return err
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return out, nil
}

// SetPollState transitions the poll between Visible, Closed, Hidden and None.
// Owner or admin only. Leaving None requires questions to already exist;
// moving to None requires the poll be empty.
func (s *VotingService) SetPollState(ctx context.Context, discussionID, userID uint, state models.PollState) (*VotingDetail, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if !state.Valid() {
		return nil, models.NewValidationError("Invalid poll state")
	}

	v, err := s.viewer(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out *VotingDetail
	err = s.db.Transaction(func(tx *gorm.DB) error {
		discussion, err := s.loadDiscussion(ctx, tx, discussionID, v)
		if err != nil {
			return err
		}
		if !policy.CanEdit(discussion.UserID, v) {
			return models.NewUnauthorizedError("You cannot manage this discussion's poll")
		}

		var questionCount int64
		if err := tx.WithContext(ctx).
			Model(&models.VotingQuestion{}).
			Where("discussion_id = ?", discussionID).
			Count(&questionCount).Error; err != nil {
			return err
		}
		if state == models.PollNone && questionCount > 0 {
			return models.NewInvalidStateError("Remove the poll's questions before setting state None")
		}
		if state != models.PollNone && questionCount == 0 {
			return models.NewInvalidStateError("A poll needs questions before it can be opened")
		}

		if err := tx.WithContext(ctx).
			Model(&models.Discussion{}).
			Where("id = ?", discussionID).
			UpdateColumn("vote_type", state).Error; err != nil {
			return err
		}
		discussion.VoteType = state

		out, err = s.detail(ctx, tx, discussion, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitVotes applies a user's full answer sheet in one transaction. For each
// question of the poll the submitted map either sets an answer, changes it,
// or (when the question is absent) retracts the previous one. Tallies are
// adjusted by column arithmetic next to every vote row change, never
// recomputed from a separate read, so concurrent submissions by different
// users cannot clobber each other.
func (s *VotingService) SubmitVotes(ctx context.Context, in SubmitVotesInput) (*VotingDetail, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	v, err := s.viewer(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "voting.submit")
	defer span.End()
	span.AddAttributes(
		attribute.Int("discussion.id", int(in.DiscussionID)),
		attribute.Int("answers", len(in.Answers)),
	)

	var out *VotingDetail
	err = s.db.Transaction(func(tx *gorm.DB) error {
		discussion, err := s.loadDiscussion(ctx, tx, in.DiscussionID, v)
		if err != nil {
			return err
		}

		switch discussion.VoteType {
		case models.PollNone:
			return models.NewNotFoundError("Poll for discussion", in.DiscussionID)
		case models.PollVisible:
			// open for voting
		default:
			return models.NewInvalidStateError("Poll is not accepting votes")
		}

		var questions []models.VotingQuestion
		if err := tx.WithContext(ctx).
			Where("discussion_id = ?", in.DiscussionID).
			Find(&questions).Error; err != nil {
			return err
		}
		questionIDs := make(map[uint]bool, len(questions))
		for _, q := range questions {
			questionIDs[q.ID] = true
		}
		for id := range in.Answers {
			if !questionIDs[id] {
				return models.NewForeignReferenceError("Answer references a question outside this poll")
			}
		}

		var existing []models.Vote
		if err := tx.WithContext(ctx).
			Joins("JOIN voting_questions ON voting_questions.id = votes.voting_question_id").
			Where("voting_questions.discussion_id = ? AND votes.user_id = ?", in.DiscussionID, in.UserID).
			Find(&existing).Error; err != nil {
			return err
		}
		existingByQuestion := make(map[uint]models.Vote, len(existing))
		for _, vote := range existing {
			existingByQuestion[vote.VotingQuestionID] = vote
		}

		// Deterministic order keeps lock acquisition consistent across
		// concurrent submissions.
		ordered := make([]uint, 0, len(questionIDs))
		for id := range questionIDs {
			ordered = append(ordered, id)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

		for _, qid := range ordered {
			answer, answered := in.Answers[qid]
			prev, hadVote := existingByQuestion[qid]

			switch {
			case answered && !hadVote:
				vote := models.Vote{
					VotingQuestionID: qid,
					UserID:           in.UserID,
					Value:            answer,
				}
				if err := tx.WithContext(ctx).Create(&vote).Error; err != nil {
					return err
				}
				if err := adjustTally(ctx, tx, qid, answer, +1); err != nil {
					return err
				}

			case answered && hadVote && prev.Value != answer:
				if err := tx.WithContext(ctx).
					Model(&models.Vote{}).
					Where("id = ?", prev.ID).
					UpdateColumn("value", answer).Error; err != nil {
					return err
				}
				if err := adjustTally(ctx, tx, qid, prev.Value, -1); err != nil {
					return err
				}
				if err := adjustTally(ctx, tx, qid, answer, +1); err != nil {
					return err
				}

			case !answered && hadVote:
				if err := tx.WithContext(ctx).Delete(&models.Vote{}, prev.ID).Error; err != nil {
					return err
				}
				if err := adjustTally(ctx, tx, qid, prev.Value, -1); err != nil {
					return err
				}
			}
			// answered && hadVote && same value: nothing to do, resubmission
			// is idempotent.
		}

		out, err = s.detail(ctx, tx, discussion, in.UserID)
		return err
	})
	if err != nil {
		span.SetError(err)
		middleware.VoteSubmissions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	middleware.VoteSubmissions.WithLabelValues("accepted").Inc()
	return out, nil
}

// adjustTally moves one question's yes or no counter by delta in a single
// UPDATE statement.
func adjustTally(ctx context.Context, tx *gorm.DB, questionID uint, value bool, delta int) error {
	column := "no_votes"
	if value {
		column = "yes_votes"
	}
	return tx.WithContext(ctx).
		Model(&models.VotingQuestion{}).
		Where("id = ?", questionID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
