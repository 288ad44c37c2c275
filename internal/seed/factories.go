// Package seed provides helpers to create demo data for the forum database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"agora/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, rng: rand.New(rand.NewSource(seed))}
}

// pastTime returns a timestamp spread over the last maxDays days.
func (f *Factory) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user with a generated nickname and email.
func (f *Factory) CreateUser(admin bool) (*models.User, error) {
	nickname := fmt.Sprintf("%s%d", gofakeit.Username(), f.rng.Intn(10000))
	user := &models.User{
		Nickname:  nickname,
		Email:     fmt.Sprintf("%s@%s", nickname, gofakeit.DomainName()),
		IsAdmin:   admin,
		CreatedAt: f.pastTime(365),
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildDiscussion constructs a discussion without persisting it.
func (f *Factory) BuildDiscussion(user *models.User, category *models.Category, state models.DiscussionState) *models.Discussion {
	return &models.Discussion{
		Code:       uuid.NewString(),
		CategoryID: category.ID,
		UserID:     user.ID,
		Title:      gofakeit.Sentence(f.rng.Intn(6) + 3),
		Content:    gofakeit.Paragraph(1, 4, 8, "\n\n"),
		State:      state,
		VoteType:   models.PollNone,
		ViewCount:  int64(f.rng.Intn(500)),
		CreatedAt:  f.pastTime(90),
	}
}

// CreateComment persists one comment. Pass a nil parent for a root comment.
func (f *Factory) CreateComment(discussion *models.Discussion, user *models.User, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		DiscussionID: discussion.ID,
		UserID:       user.ID,
		Content:      gofakeit.Sentence(f.rng.Intn(15) + 3),
		State:        models.CommentNormal,
		CreatedAt:    f.pastTime(30),
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePoll attaches a poll with the given number of questions to a
// discussion and records votes from the given users. Question tallies are
// written to match the vote rows exactly.
func (f *Factory) CreatePoll(discussion *models.Discussion, questionCount int, voters []*models.User) error {
	if questionCount <= 0 {
		questionCount = 2
	}

	questions := make([]*models.VotingQuestion, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		q := &models.VotingQuestion{
			DiscussionID: discussion.ID,
			Text:         gofakeit.Question(),
			DisplayOrder: i + 1,
		}
		if err := f.db.Create(q).Error; err != nil {
			return err
		}
		questions = append(questions, q)
	}

	for _, q := range questions {
		yes, no := 0, 0
		for _, voter := range voters {
			// Not everyone answers every question.
			if f.rng.Intn(3) == 0 {
				continue
			}
			value := f.rng.Intn(2) == 0
			vote := &models.Vote{
				VotingQuestionID: q.ID,
				UserID:           voter.ID,
				Value:            value,
			}
			if err := f.db.Create(vote).Error; err != nil {
				return err
			}
			if value {
				yes++
			} else {
				no++
			}
		}
		if err := f.db.Model(q).Updates(map[string]any{
			"yes_votes": yes,
			"no_votes":  no,
		}).Error; err != nil {
			return err
		}
	}

	state := models.PollVisible
	if f.rng.Intn(4) == 0 {
		state = models.PollClosed
	}
	return f.db.Model(discussion).UpdateColumn("vote_type", state).Error
}

// LikeDiscussion records a like if the user has not already liked the
// discussion. Likes by the discussion's author are skipped.
func (f *Factory) LikeDiscussion(discussion *models.Discussion, user *models.User) error {
	if user.ID == discussion.UserID && !user.IsAdmin {
		return nil
	}
	like := &models.DiscussionLike{
		UserID:       user.ID,
		DiscussionID: discussion.ID,
		Admin:        user.IsAdmin,
	}
	err := f.db.Create(like).Error
	if err != nil && !user.IsAdmin {
		// Duplicate like from re-picking the same user; the partial unique
		// index rejects it and that is fine for seeding.
		return nil
	}
	return err
}

// LikeComment records a like on a comment, skipping author self-likes.
func (f *Factory) LikeComment(comment *models.Comment, user *models.User) error {
	if user.ID == comment.UserID && !user.IsAdmin {
		return nil
	}
	like := &models.CommentLike{
		UserID:    user.ID,
		CommentID: comment.ID,
		Admin:     user.IsAdmin,
	}
	err := f.db.Create(like).Error
	if err != nil && !user.IsAdmin {
		return nil
	}
	return err
}
