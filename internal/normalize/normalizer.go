// Package normalize turns source-specific raw records into canonical drafts.
package normalize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"ContentCurator/internal/domain"
)

const defaultDescriptionRunes = 500

var imageURLExpr = regexp.MustCompile(`(?i)https?://[^\s"'<>()]+?\.(?:jpe?g|png|webp|gif|avif)(?:\?[^\s"'<>()]*)?`)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Normalizer maps raw records onto domain drafts.
type Normalizer struct {
	policy         *bluemonday.Policy
	maxDescription int
	now            func() time.Time
}

// New builds a Normalizer. now defaults to time.Now and is used for unparsable dates.
func New(maxDescriptionRunes int, now func() time.Time) *Normalizer {
	if maxDescriptionRunes <= 0 {
		maxDescriptionRunes = defaultDescriptionRunes
	}
	if now == nil {
		now = time.Now
	}
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return &Normalizer{policy: policy, maxDescription: maxDescriptionRunes, now: now}
}

// Normalize never fails: anomalies resolve to safe defaults and the writer
// decides whether a missing field disqualifies the draft.
func (n *Normalizer) Normalize(raw domain.RawRecord, kind domain.Kind, sourceName string) domain.Draft {
	var d domain.Draft
	switch r := raw.(type) {
	case domain.FeedEntry:
		d = n.fromFeed(r, kind)
	case domain.VideoEntry:
		d = n.fromVideo(r, kind)
	case domain.SearchHit:
		d = n.fromSearch(r, kind)
	}

	d.Kind = kind
	if d.SourceName == "" {
		d.SourceName = sourceName
	}
	d.Language = DetectLanguage(d.Title + " " + d.Description)
	return d
}

func (n *Normalizer) fromFeed(e domain.FeedEntry, kind domain.Kind) domain.Draft {
	description := e.Description
	if strings.TrimSpace(description) == "" {
		description = e.Content
	}

	d := domain.Draft{
		NaturalKey:  feedNaturalKey(e, kind),
		Title:       n.StripMarkup(e.Title),
		Description: n.truncate(n.StripMarkup(description)),
		PublishedAt: n.resolveDate(e.Published, e.PublishedRaw),
	}
	if kind == domain.KindMedia || kind == domain.KindHero {
		d.MediaType = domain.MediaImage
	}

	if ref, ok := pickFeedMedia(e); ok {
		d.ImageURL, d.Width, d.Height = ref.URL, ref.Width, ref.Height
	} else if img := ImageFromHTML(e.Description); img != "" {
		d.ImageURL = img
	} else if img := ImageFromHTML(e.Content); img != "" {
		d.ImageURL = img
	} else {
		d.ImageURL = ScanImageURL(e.Description + " " + e.Content)
	}
	if len(e.Thumbnails) > 0 {
		d.ThumbnailURL = e.Thumbnails[0].URL
	}
	return d
}

func (n *Normalizer) fromVideo(e domain.VideoEntry, kind domain.Kind) domain.Draft {
	d := domain.Draft{
		NaturalKey:   WatchURL(e.VideoID),
		Title:        n.StripMarkup(e.Title),
		Description:  n.truncate(n.StripMarkup(e.Description)),
		SourceName:   strings.TrimSpace(e.ChannelName),
		PublishedAt:  n.resolveDate(e.Published, e.PublishedRaw),
		MediaType:    domain.MediaVideo,
		EmbedURL:     EmbedURL(e.VideoID),
		ThumbnailURL: ThumbnailURL(e.VideoID),
		Width:        e.Width,
		Height:       e.Height,
	}
	if kind == domain.KindSocial {
		d.NaturalKey = e.VideoID
	}
	d.ImageURL = d.ThumbnailURL
	return d
}

func (n *Normalizer) fromSearch(h domain.SearchHit, kind domain.Kind) domain.Draft {
	d := domain.Draft{
		NaturalKey:  strings.TrimSpace(h.URL),
		Title:       n.StripMarkup(h.Title),
		Description: n.truncate(n.StripMarkup(h.Snippet)),
		SourceName:  strings.TrimSpace(h.SourceName),
		PublishedAt: n.resolveDate(nil, h.PublishedRaw),
		ImageURL:    h.ImageURL,
		Width:       h.Width,
		Height:      h.Height,
	}
	if kind.RequiresVisual() {
		d.MediaType = domain.MediaImage
	}
	return d
}

// StripMarkup removes tags, decodes entities and collapses whitespace.
func (n *Normalizer) StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	cleaned := html.UnescapeString(n.policy.Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (n *Normalizer) truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= n.maxDescription {
		return s
	}
	return strings.TrimSpace(string(runes[:n.maxDescription-1])) + "…"
}

func (n *Normalizer) resolveDate(parsed *time.Time, raw string) time.Time {
	if parsed != nil && !parsed.IsZero() {
		return parsed.UTC()
	}
	if ts, ok := ParseDate(raw); ok {
		return ts
	}
	return n.now().UTC()
}

// ParseDate tries the layouts feeds and result pages commonly use.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func feedNaturalKey(e domain.FeedEntry, kind domain.Kind) string {
	if kind == domain.KindSocial {
		if e.GUID != "" {
			return e.GUID
		}
		return e.Link
	}
	if e.Link != "" {
		return e.Link
	}
	if isHTTPURL(e.GUID) {
		return e.GUID
	}
	return ""
}

// pickFeedMedia walks structured media in preference order.
func pickFeedMedia(e domain.FeedEntry) (domain.MediaRef, bool) {
	if isHTTPURL(e.ImageURL) {
		return domain.MediaRef{URL: e.ImageURL}, true
	}
	for _, m := range e.Media {
		if (m.Medium == "image" || strings.HasPrefix(m.Type, "image/")) && isHTTPURL(m.URL) {
			return m, true
		}
	}
	for _, t := range e.Thumbnails {
		if isHTTPURL(t.URL) {
			return t, true
		}
	}
	for _, enc := range e.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc, true
		}
	}
	return domain.MediaRef{}, false
}

// ImageFromHTML returns the first absolute <img src> inside a markup fragment.
func ImageFromHTML(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if isHTTPURL(strings.TrimSpace(src)) {
			found = strings.TrimSpace(src)
			return false
		}
		return true
	})
	return found
}

// ScanImageURL finds the first image-looking URL in free text.
func ScanImageURL(text string) string {
	return imageURLExpr.FindString(html.UnescapeString(text))
}

// WatchURL is the canonical page of a video.
func WatchURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// EmbedURL is the embeddable player for a video.
func EmbedURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + url.PathEscape(videoID)
}

// ThumbnailURL is the platform's high-quality still for a video.
func ThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + url.PathEscape(videoID) + "/hqdefault.jpg"
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
