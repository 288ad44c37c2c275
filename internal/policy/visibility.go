// Package policy holds the pure visibility and like-eligibility rules applied
// on every read path. It performs no I/O; callers load state and ownership and
// pass them in together with the viewer.
package policy

import "agora/internal/models"

// Viewer identifies the requesting principal. A zero UserID means anonymous.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// Authenticated reports whether the viewer carries an identity.
func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}

// DiscussionVisible decides whether a viewer may see a discussion.
// Deleted content is invisible to everyone, Hidden content only to the owner
// or an admin. Private restricts the creation-time audience, not reads.
func DiscussionVisible(state models.DiscussionState, ownerID uint, viewer Viewer) bool {
	switch state {
	case models.DiscussionDeleted:
		return false
	case models.DiscussionHidden:
		return viewer.IsAdmin || (viewer.Authenticated() && viewer.UserID == ownerID)
	default:
		return true
	}
}

// CommentVisible applies the same rule set to a comment's own state and author.
func CommentVisible(state models.CommentState, authorID uint, viewer Viewer) bool {
	switch state {
	case models.CommentDeleted:
		return false
	case models.CommentHidden:
		return viewer.IsAdmin || (viewer.Authenticated() && viewer.UserID == authorID)
	default:
		return true
	}
}

// CanLike decides whether the viewer may add a like to content owned by
// ownerID. Admins may always like, including their own content and targets
// they already liked; everyone else needs an identity, must not own the
// target, and must not have liked it before.
func CanLike(ownerID uint, viewer Viewer, alreadyLiked bool) bool {
	if viewer.IsAdmin {
		return true
	}
	return viewer.Authenticated() && viewer.UserID != ownerID && !alreadyLiked
}

// CanEdit decides whether the viewer may modify content owned by ownerID.
func CanEdit(ownerID uint, viewer Viewer) bool {
	if viewer.IsAdmin {
		return true
	}
	return viewer.Authenticated() && viewer.UserID == ownerID
}
