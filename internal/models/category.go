package models

import "time"

// Category groups discussions for browsing and filtering.
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Code         string    `gorm:"not null;uniqueIndex" json:"code"`
	Description  string    `json:"description"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
