package feed

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	danbooruPostURL = "https://danbooru.donmai.us/posts/%d/"
	danbooruLogoURL = "https://danbooru.donmai.us/packs/static/danbooru-logo-128x128-ea111b6658173e847734.png"
)

// knownImageExtensions lists variant file types that render inline.
var knownImageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {},
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type danbooruPost struct {
	ID                 int64              `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	TagStringArtist    string             `json:"tag_string_artist"`
	TagStringCharacter string             `json:"tag_string_character"`
	MediaAsset         danbooruMediaAsset `json:"media_asset"`
}

type danbooruMediaAsset struct {
	FileExt  string            `json:"file_ext"`
	Variants []danbooruVariant `json:"variants"`
}

type danbooruVariant struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	FileExt string `json:"file_ext"`
}

func parseDanbooru(data []byte) ([]Item, error) {
	var posts []danbooruPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("parse posts: %w", err)
	}

	items := make([]Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, normalizePost(post))
	}
	return items, nil
}

func normalizePost(post danbooruPost) Item {
	created := post.CreatedAt
	it := Item{
		// Post IDs are already compact; no hashing needed.
		Fingerprint:   uint64(post.ID),
		Link:          fmt.Sprintf(danbooruPostURL, post.ID),
		Published:     &created,
		FooterIconURL: danbooruLogoURL,
	}

	if artists := strings.Fields(post.TagStringArtist); len(artists) > 0 {
		it.AuthorName = humanizeList(artists)
	}

	if characters := strings.Fields(post.TagStringCharacter); len(characters) > 0 {
		titled := make([]string, len(characters))
		for i, c := range characters {
			titled[i] = titleize(c)
		}
		it.Title = humanizeList(titled)
	}

	best := bestVariant(post.MediaAsset.Variants)
	if best != nil {
		it.ImageURL = best.URL
		it.Description = fmt.Sprintf("%s file | embed is %s quality",
			strings.ToUpper(post.MediaAsset.FileExt), best.Type)
		if best.Type != "original" {
			it.Description += fmt.Sprintf(" (%s file)", strings.ToUpper(best.FileExt))
		}
	} else {
		it.Description = fmt.Sprintf("%s file | no embeddable preview",
			strings.ToUpper(post.MediaAsset.FileExt))
	}
	return it
}

// bestVariant picks the largest embeddable variant by pixel area. Ties keep
// the first variant encountered.
func bestVariant(variants []danbooruVariant) *danbooruVariant {
	var best *danbooruVariant
	bestArea := -1
	for i := range variants {
		v := &variants[i]
		if _, ok := knownImageExtensions[strings.ToLower(v.FileExt)]; !ok {
			continue
		}
		if area := v.Width * v.Height; area > bestArea {
			best = v
			bestArea = area
		}
	}
	return best
}

// titleize turns a tag like "hatsune_miku" into "Hatsune Miku".
func titleize(tag string) string {
	words := strings.Split(tag, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// humanizeList joins words the way a sentence would: "a", "a and b",
// "a, b and c".
func humanizeList(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
