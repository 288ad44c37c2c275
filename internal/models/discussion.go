package models

import "time"

// DiscussionState is the moderation/lifecycle state of a discussion. Deletion
// is a state transition, never a row removal; every read path filters on it.
type DiscussionState string

const (
	DiscussionNormal  DiscussionState = "Normal"
	DiscussionTop     DiscussionState = "Top"
	DiscussionHidden  DiscussionState = "Hidden"
	DiscussionPrivate DiscussionState = "Private"
	DiscussionDeleted DiscussionState = "Deleted"
)

// Valid reports whether s is one of the known discussion states.
func (s DiscussionState) Valid() bool {
	switch s {
	case DiscussionNormal, DiscussionTop, DiscussionHidden, DiscussionPrivate, DiscussionDeleted:
		return true
	}
	return false
}

// PollState controls whether a discussion's poll exists and accepts votes.
type PollState string

const (
	PollNone    PollState = "None"
	PollVisible PollState = "Visible"
	PollClosed  PollState = "Closed"
	PollHidden  PollState = "Hidden"
)

// Valid reports whether p is one of the known poll states.
func (p PollState) Valid() bool {
	switch p {
	case PollNone, PollVisible, PollClosed, PollHidden:
		return true
	}
	return false
}

// Discussion is a forum thread owned by a user within a category.
type Discussion struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Code       string          `gorm:"not null;uniqueIndex;size:36" json:"code"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	Category   Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"user"`
	Title      string          `gorm:"not null" json:"title"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	State      DiscussionState `gorm:"type:varchar(16);not null;default:Normal;index" json:"state"`
	VoteType   PollState       `gorm:"type:varchar(16);not null;default:None" json:"vote_type"`
	ViewCount  int64           `gorm:"not null;default:0" json:"view_count"`
	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->" json:"like_count"`
	// HasUserLiked indicates whether the requesting user liked this discussion (computed)
	HasUserLiked bool `gorm:"->" json:"has_user_liked"`
	// CanUserLike is annotated by the service layer from the visibility policy
	CanUserLike bool      `gorm:"-" json:"can_user_like"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
