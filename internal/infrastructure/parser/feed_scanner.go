package parser

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"

// FeedScanner reads RSS, Atom and JSON feeds.
type FeedScanner struct {
	fetch  fetcher
	parser *gofeed.Parser
}

// NewFeedScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewFeedScanner(client *http.Client, limiter *HostRateLimiter, userAgent string) *FeedScanner {
	return &FeedScanner{
		fetch:  newFetcher(client, limiter, userAgent),
		parser: gofeed.NewParser(),
	}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan downloads the feed and converts every item into a FeedEntry.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawRecord, error) {
	feed, err := fetchFeed(ctx, f.fetch, f.parser, req.URL)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		records = append(records, toFeedEntry(item))
	}
	return scanner.Cap(records, req.Limit), nil
}

func fetchFeed(ctx context.Context, f fetcher, parser *gofeed.Parser, target string) (*gofeed.Feed, error) {
	body, err := f.get(ctx, target, feedAccept)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func toFeedEntry(item *gofeed.Item) domain.FeedEntry {
	entry := domain.FeedEntry{
		GUID:         strings.TrimSpace(item.GUID),
		Link:         strings.TrimSpace(item.Link),
		Title:        item.Title,
		Description:  item.Description,
		Content:      item.Content,
		Published:    item.PublishedParsed,
		PublishedRaw: item.Published,
	}
	if entry.Published == nil {
		entry.Published = item.UpdatedParsed
		entry.PublishedRaw = item.Updated
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		entry.Author = item.Authors[0].Name
	}
	if item.Image != nil {
		entry.ImageURL = item.Image.URL
	}

	if media, ok := item.Extensions["media"]; ok {
		entry.Thumbnails = append(entry.Thumbnails, mediaRefs(media["thumbnail"])...)
		entry.Media = append(entry.Media, mediaRefs(media["content"])...)
		for _, group := range media["group"] {
			entry.Thumbnails = append(entry.Thumbnails, mediaRefs(group.Children["thumbnail"])...)
			entry.Media = append(entry.Media, mediaRefs(group.Children["content"])...)
		}
	}

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, domain.MediaRef{URL: enc.URL, Type: enc.Type})
	}
	return entry
}

func mediaRefs(list []ext.Extension) []domain.MediaRef {
	refs := make([]domain.MediaRef, 0, len(list))
	for _, e := range list {
		u := e.Attrs["url"]
		if u == "" {
			continue
		}
		refs = append(refs, domain.MediaRef{
			URL:    u,
			Medium: e.Attrs["medium"],
			Type:   e.Attrs["type"],
			Width:  atoi(e.Attrs["width"]),
			Height: atoi(e.Attrs["height"]),
		})
	}
	return refs
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
