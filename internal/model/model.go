// Package model defines the domain types used across the application.
package model

import "time"

// Subscription registers a Telegram chat as a destination for a feed URL.
// Several chats may subscribe to the same URL; the poller fetches the feed
// once per cycle and fans new items out to all of them.
type Subscription struct {
	ID        int64
	ChatID    int64
	FeedURL   string
	Title     string // optional display override for the feed title
	CreatedAt time.Time
}
