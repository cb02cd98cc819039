package domain

import (
	"fmt"
	"time"
)

// Kind selects the content table an item belongs to.
type Kind string

const (
	KindNews   Kind = "news"
	KindMedia  Kind = "media"
	KindSocial Kind = "social"
	KindHero   Kind = "hero"
)

// Kinds lists every supported content kind in a stable order.
var Kinds = []Kind{KindNews, KindMedia, KindSocial, KindHero}

// ParseKind validates a kind string coming from config, CLI or HTTP.
func ParseKind(value string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == value {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
}

// Table returns the relational table backing the kind.
func (k Kind) Table() string {
	switch k {
	case KindNews:
		return "news_items"
	case KindMedia:
		return "media_items"
	case KindSocial:
		return "social_posts"
	case KindHero:
		return "hero_images"
	default:
		return ""
	}
}

// RequiresVisual reports whether items of the kind are useless without an image or player.
func (k Kind) RequiresVisual() bool {
	return k == KindMedia || k == KindHero
}

// Status is the publication state of a persisted item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusHidden   Status = "hidden"
	// StatusFeatured is a manual pin; featured items are never swept.
	StatusFeatured Status = "featured"
)

// MediaType distinguishes image from video media items.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Draft is a normalized, not yet scored or persisted candidate.
type Draft struct {
	Kind         Kind
	NaturalKey   string
	Title        string
	Description  string
	Language     string
	SourceName   string
	PublishedAt  time.Time
	MediaType    MediaType
	ImageURL     string
	ThumbnailURL string
	EmbedURL     string
	Width        int
	Height       int
}

// Text is the concatenation the relevance filter and fallback scorer look at.
func (d Draft) Text() string {
	if d.Description == "" {
		return d.Title
	}
	return d.Title + " " + d.Description
}

// HasVisual reports whether the draft carries anything displayable.
func (d Draft) HasVisual() bool {
	return d.ImageURL != "" || d.ThumbnailURL != "" || d.EmbedURL != ""
}

// ContentItem is the persisted unit of curation.
type ContentItem struct {
	ID           string
	Kind         Kind
	NaturalKey   string
	Title        string
	Description  string
	Language     string
	SourceName   string
	Score        int
	Status       Status
	MediaType    MediaType
	ImageURL     string
	ThumbnailURL string
	EmbedURL     string
	Width        int
	Height       int
	PublishedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertOutcome tells what the store writer did with an item.
type UpsertOutcome string

const (
	OutcomeCreated  UpsertOutcome = "created"
	OutcomeUpdated  UpsertOutcome = "updated"
	OutcomeRejected UpsertOutcome = "rejected"
)

// UpsertResult carries the outcome of a single item write; Err is set for rejections.
type UpsertResult struct {
	Outcome UpsertOutcome
	Err     error
}

// ClampScore forces a score into [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// MaxScore is the highest score any path can assign.
const MaxScore = 100
