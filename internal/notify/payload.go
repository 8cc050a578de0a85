// Package notify defines the delivery-ready notification payload and the
// contract errors shared between the poller and the transport.
package notify

import (
	"errors"
	"time"
)

// ErrDestinationGone marks a destination whose underlying chat no longer
// resolves. The poller reacts by pruning that chat's subscriptions.
var ErrDestinationGone = errors.New("destination no longer exists")

// Display caps applied when a payload is built.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 400
)

// Payload is the rendered, transport-neutral form of one feed item.
type Payload struct {
	Title         string
	Description   string
	Link          string
	AuthorName    string
	AuthorURL     string
	ImageURL      string
	ThumbnailURL  string
	FooterText    string
	FooterIconURL string
	Timestamp     *time.Time
	Color         int
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
