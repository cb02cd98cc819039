package domain

import "time"

// SourceKind names the family of upstream a raw record came from.
type SourceKind string

const (
	SourceFeed   SourceKind = "feed"
	SourceVideo  SourceKind = "video"
	SourceSearch SourceKind = "search"
)

// RawRecord is one of FeedEntry, VideoEntry or SearchHit.
// The unexported marker keeps the set closed so consumers can switch exhaustively.
type RawRecord interface {
	SourceKind() SourceKind
	// RecencyHint orders records when a per-source cap is applied; zero sorts last.
	RecencyHint() time.Time
	rawRecord()
}

// MediaRef is a structured media reference (media:content, media:thumbnail, enclosure).
type MediaRef struct {
	URL    string
	Medium string
	Type   string
	Width  int
	Height int
}

// FeedEntry is a syndication (RSS/Atom/JSON feed) item.
type FeedEntry struct {
	GUID         string
	Link         string
	Title        string
	Description  string
	Content      string
	Author       string
	Published    *time.Time
	PublishedRaw string
	ImageURL     string
	Thumbnails   []MediaRef
	Media        []MediaRef
	Enclosures   []MediaRef
}

// VideoEntry is a video-platform item identified by the platform's video id.
type VideoEntry struct {
	VideoID      string
	Title        string
	Description  string
	ChannelName  string
	Published    *time.Time
	PublishedRaw string
	ThumbnailURL string
	Width        int
	Height       int
}

// SearchHit is one result from a search-engine result page.
type SearchHit struct {
	URL          string
	Title        string
	Snippet      string
	SourceName   string
	ImageURL     string
	Width        int
	Height       int
	PublishedRaw string
}

func (FeedEntry) SourceKind() SourceKind  { return SourceFeed }
func (VideoEntry) SourceKind() SourceKind { return SourceVideo }
func (SearchHit) SourceKind() SourceKind  { return SourceSearch }

func (e FeedEntry) RecencyHint() time.Time  { return derefTime(e.Published) }
func (e VideoEntry) RecencyHint() time.Time { return derefTime(e.Published) }
func (SearchHit) RecencyHint() time.Time    { return time.Time{} }

func (FeedEntry) rawRecord()  {}
func (VideoEntry) rawRecord() {}
func (SearchHit) rawRecord()  {}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
