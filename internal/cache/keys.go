package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DiscussionKeyPrefix = "discussion:%d"
	CategoriesKey       = "categories"
)

const (
	DiscussionTTL = 5 * time.Minute
	CategoryTTL   = 10 * time.Minute
)

// DiscussionKey returns the cache key for one discussion's anonymous detail row.
func DiscussionKey(discussionID uint) string {
	return fmt.Sprintf(DiscussionKeyPrefix, discussionID)
}

// Invalidate drops a key; a nil client makes this a no-op.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateDiscussion drops the cached detail for one discussion.
func InvalidateDiscussion(ctx context.Context, discussionID uint) {
	Invalidate(ctx, DiscussionKey(discussionID))
}
