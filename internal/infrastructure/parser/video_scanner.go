package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
)

// VideoScanner reads a video platform channel feed, or its search API when
// the source sets options.query and options.apiKey.
type VideoScanner struct {
	fetch  fetcher
	parser *gofeed.Parser
}

// NewVideoScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewVideoScanner(client *http.Client, limiter *HostRateLimiter, userAgent string) *VideoScanner {
	return &VideoScanner{
		fetch:  newFetcher(client, limiter, userAgent),
		parser: gofeed.NewParser(),
	}
}

// Name identifies the strategy inside the registry.
func (v *VideoScanner) Name() string {
	return "video"
}

// Scan dispatches to channel-feed or search mode.
func (v *VideoScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawRecord, error) {
	var (
		records []domain.RawRecord
		err     error
	)
	if req.Option("query", "") != "" {
		records, err = v.search(ctx, req)
	} else {
		records, err = v.channel(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return scanner.Cap(records, req.Limit), nil
}

func (v *VideoScanner) channel(ctx context.Context, req scanner.Request) ([]domain.RawRecord, error) {
	feed, err := fetchFeed(ctx, v.fetch, v.parser, req.URL)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entry := domain.VideoEntry{
			VideoID:      videoIDFromItem(item),
			Title:        item.Title,
			Description:  item.Description,
			ChannelName:  feed.Title,
			Published:    item.PublishedParsed,
			PublishedRaw: item.Published,
		}
		if entry.VideoID == "" {
			continue
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
			entry.ChannelName = item.Authors[0].Name
		}
		if media, ok := item.Extensions["media"]; ok {
			for _, group := range media["group"] {
				if d := group.Children["description"]; len(d) > 0 && entry.Description == "" {
					entry.Description = d[0].Value
				}
				if thumbs := mediaRefs(group.Children["thumbnail"]); len(thumbs) > 0 {
					entry.ThumbnailURL = thumbs[0].URL
					entry.Width = thumbs[0].Width
					entry.Height = thumbs[0].Height
				}
			}
		}
		records = append(records, entry)
	}
	return records, nil
}

// videoIDFromItem prefers the yt:videoId extension, then the watch URL's v parameter.
func videoIDFromItem(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 && strings.TrimSpace(ids[0].Value) != "" {
			return strings.TrimSpace(ids[0].Value)
		}
	}
	if u, err := url.Parse(item.Link); err == nil {
		if id := u.Query().Get("v"); id != "" {
			return id
		}
	}
	return strings.TrimPrefix(item.GUID, "yt:video:")
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   map[string]struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (v *VideoScanner) search(ctx context.Context, req scanner.Request) ([]domain.RawRecord, error) {
	target, err := buildSearchURL(req)
	if err != nil {
		return nil, err
	}

	body, err := v.fetch.get(ctx, target, "application/json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp searchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		entry := domain.VideoEntry{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			Description:  it.Snippet.Description,
			ChannelName:  it.Snippet.ChannelTitle,
			PublishedRaw: it.Snippet.PublishedAt,
		}
		if ts, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt); err == nil {
			entry.Published = &ts
		}
		for _, size := range []string{"maxres", "high", "medium", "default"} {
			if th, ok := it.Snippet.Thumbnails[size]; ok && th.URL != "" {
				entry.ThumbnailURL, entry.Width, entry.Height = th.URL, th.Width, th.Height
				break
			}
		}
		records = append(records, entry)
	}
	return records, nil
}

func buildSearchURL(req scanner.Request) (string, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", req.URL, err)
	}

	q := parsed.Query()
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("order", "date")
	q.Set("q", req.Option("query", ""))
	if key := req.Option("apiKey", ""); key != "" {
		q.Set("key", key)
	}
	if req.Limit > 0 {
		q.Set("maxResults", strconv.Itoa(req.Limit))
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
