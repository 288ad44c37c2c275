package models

import "time"

// CommentState is the moderation/lifecycle state of a comment.
type CommentState string

const (
	CommentNormal  CommentState = "Normal"
	CommentHidden  CommentState = "Hidden"
	CommentDeleted CommentState = "Deleted"
)

// Valid reports whether s is one of the known comment states.
func (s CommentState) Valid() bool {
	switch s {
	case CommentNormal, CommentHidden, CommentDeleted:
		return true
	}
	return false
}

// Comment is a root comment or a reply on a discussion. The tree is exactly
// two levels deep: ParentCommentID is nil for roots and must reference a root
// for replies. Nesting below that is rejected before insertion.
type Comment struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	DiscussionID    uint         `gorm:"not null;index" json:"discussion_id"`
	UserID          uint         `gorm:"not null" json:"user_id"`
	User            User         `gorm:"foreignKey:UserID" json:"user"`
	ParentCommentID *uint        `gorm:"index" json:"parent_comment_id,omitempty"`
	Content         string       `gorm:"type:text;not null" json:"content"`
	State           CommentState `gorm:"type:varchar(16);not null;default:Normal" json:"state"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsRoot reports whether the comment is a root comment (eligible for replies).
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}
