package feed

import (
	"crypto/sha256"
	"fmt"
	"hash/fnv"
	"html"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// stripPolicy removes all markup from item descriptions; payloads are
// plain text.
var stripPolicy = bluemonday.StrictPolicy()

// Some reddit Atom feeds publish their icon URL with a trailing slash,
// which image proxies reject.
const redditBrokenIcon = "https://www.redditstatic.com/icon.png/"

func parseSyndication(data []byte) ([]Item, error) {
	parsed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	switch parsed.FeedType {
	case "rss", "atom":
	default:
		return nil, fmt.Errorf("unsupported feed type %q", parsed.FeedType)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		items = append(items, normalizeSyndicationItem(parsed, raw))
	}

	// Sort newest-first only when every item is dated; a feed with any
	// undated item keeps its upstream order.
	if allDated(items) {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Published.After(*items[j].Published)
		})
	}
	return items, nil
}

func normalizeSyndicationItem(parsed *gofeed.Feed, raw *gofeed.Item) Item {
	it := Item{
		GUID:        itemGUID(raw),
		Title:       raw.Title,
		Link:        raw.Link,
		Description: plainText(raw.Description),
		FeedTitle:   parsed.Title,
		footerHasID: true,
	}
	it.Fingerprint = fingerprint(it.GUID)

	if len(raw.Authors) > 0 && raw.Authors[0] != nil {
		it.AuthorName = raw.Authors[0].Name
	}

	switch parsed.FeedType {
	case "atom":
		it.Published = raw.PublishedParsed
		if it.Published == nil {
			it.Published = raw.UpdatedParsed
		}
		if parsed.Image != nil {
			it.FooterIconURL = parsed.Image.URL
			if it.FooterIconURL == redditBrokenIcon {
				it.FooterIconURL = strings.TrimSuffix(it.FooterIconURL, "/")
			}
		}
	default:
		it.Published = raw.PublishedParsed
		if parsed.Image != nil {
			it.ThumbnailURL = parsed.Image.URL
		}
	}

	it.ImageURL = itemImage(raw)
	return it
}

// itemImage finds an image for the item: an <img> embedded in the item's
// content or description first, then any extension element whose name
// contains "thumbnail" and carries a url attribute.
func itemImage(raw *gofeed.Item) string {
	for _, markup := range []string{raw.Content, raw.Description} {
		if markup == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			continue
		}
		if src, ok := doc.Find("img").First().Attr("src"); ok && src != "" {
			return src
		}
	}

	for _, ns := range raw.Extensions {
		for name, exts := range ns {
			if !strings.Contains(strings.ToLower(name), "thumbnail") {
				continue
			}
			for _, ext := range exts {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	return ""
}

// itemGUID returns the natural ID for an item, falling back to a hash of
// title and link for feeds that omit GUIDs.
func itemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

func fingerprint(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func plainText(markup string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(markup)))
}

func allDated(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.Published == nil {
			return false
		}
	}
	return true
}
