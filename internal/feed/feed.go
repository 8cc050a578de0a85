// Package feed classifies feed URLs and normalizes heterogeneous feed
// formats into a single item representation the poller can fan out.
package feed

import (
	"strings"
	"time"

	"rss_fanout/internal/notify"
)

// Kind selects the parsing pipeline for a feed URL.
type Kind int

// Supported pipelines. New vendor formats extend this set; they never branch
// inside an existing pipeline.
const (
	KindSyndication Kind = iota // RSS dialects and Atom, auto-detected
	KindDanbooru                // danbooru posts.json
)

const danbooruFeedPrefix = "https://danbooru.donmai.us/posts.json"

// KindForURL decides which pipeline applies to a feed URL.
func KindForURL(url string) Kind {
	if strings.HasPrefix(url, danbooruFeedPrefix) {
		return KindDanbooru
	}
	return KindSyndication
}

// Item is the format-agnostic projection of one feed entry. Items are
// rebuilt from scratch every poll cycle and never stored.
type Item struct {
	// Fingerprint identifies the item across cycles. Derived from the
	// item's natural ID; collisions re-suppress rather than re-notify.
	Fingerprint uint64

	GUID          string
	Title         string
	AuthorName    string
	AuthorURL     string
	Link          string
	Description   string
	Published     *time.Time
	ImageURL      string // item-level image, embedded large
	ThumbnailURL  string // feed-level image, embedded small
	FooterIconURL string
	FeedTitle     string

	// footerHasID controls whether the item GUID is appended to the
	// footer text (syndication feeds do this, vendor feeds do not).
	footerHasID bool
}

// Parse runs the pipeline for kind over a raw feed document and returns
// the normalized items in delivery order (newest first when the format
// provides timestamps for every item).
func Parse(kind Kind, data []byte) ([]Item, error) {
	switch kind {
	case KindDanbooru:
		return parseDanbooru(data)
	default:
		return parseSyndication(data)
	}
}

// BuildPayload renders an item for one subscriber, applying the
// subscriber's title override, the accent color, and the display caps.
func BuildPayload(it Item, titleOverride string, color int) notify.Payload {
	p := notify.Payload{
		Title:        notify.Truncate(it.Title, notify.MaxTitleLen),
		Description:  notify.Truncate(it.Description, notify.MaxDescriptionLen),
		Link:         it.Link,
		AuthorName:   it.AuthorName,
		AuthorURL:    it.AuthorURL,
		ImageURL:     it.ImageURL,
		ThumbnailURL: it.ThumbnailURL,
		Timestamp:    it.Published,
		Color:        color,
	}

	footerTitle := titleOverride
	if footerTitle == "" {
		footerTitle = it.FeedTitle
	}
	if footerTitle != "" {
		p.FooterText = footerTitle
		if it.footerHasID && it.GUID != "" {
			p.FooterText = footerTitle + " • " + it.GUID
		}
		p.FooterIconURL = it.FooterIconURL
	}
	return p
}
