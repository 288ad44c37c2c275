package models

import "time"

// VotingQuestion is one yes/no question of a discussion's poll. YesVotes and
// NoVotes are derivable from Vote rows but persisted redundantly for reads;
// the voting service is their sole writer and keeps
// yes_votes + no_votes == count(votes) after every committed transaction.
type VotingQuestion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	Text         string    `gorm:"not null" json:"text"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	YesVotes     int       `gorm:"not null;default:0" json:"yes_votes"`
	NoVotes      int       `gorm:"not null;default:0" json:"no_votes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Vote is a single user's answer to one question. At most one row exists per
// (question, user); absence of a row means the user abstained.
type Vote struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	VotingQuestionID uint      `gorm:"not null;uniqueIndex:idx_vote_question_user" json:"voting_question_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_vote_question_user" json:"user_id"`
	Value            bool      `gorm:"not null" json:"value"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
