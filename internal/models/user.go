// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the identity projection consumed by the forum core. Credentials and
// token issuance live in an external identity service; this row only carries
// what read paths and role checks need.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"not null;uniqueIndex" json:"nickname"`
	Email     string    `gorm:"not null;uniqueIndex" json:"-"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
