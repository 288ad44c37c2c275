package models

import "time"

// DiscussionLike records one like on a discussion. For non-admin users the
// pair (user_id, discussion_id) is unique, enforced by a partial unique index
// (see database.Migrate); admin likes set Admin and are exempt from the cap.
type DiscussionLike struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Admin        bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommentLike records one like on a comment, with the same uniqueness rules
// as DiscussionLike.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"comment_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Admin     bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
