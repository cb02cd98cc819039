package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
)

const channelFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <title>Harbor Light TV</title>
  <entry>
    <id>yt:video:abc123XYZ00</id>
    <yt:videoId>abc123XYZ00</yt:videoId>
    <title>Volunteers pack the food bank</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123XYZ00"/>
    <author><name>Harbor Light TV</name></author>
    <published>2026-03-02T10:00:00+00:00</published>
    <media:group>
      <media:title>Volunteers pack the food bank</media:title>
      <media:thumbnail url="https://i4.ytimg.com/vi/abc123XYZ00/hqdefault.jpg" width="480" height="360"/>
      <media:description>Record turnout at the food drive.</media:description>
    </media:group>
  </entry>
</feed>`

func TestVideoScannerChannel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(channelFixture))
	}))
	defer server.Close()

	sc := NewVideoScanner(server.Client(), nil, "")
	records, err := sc.Scan(context.Background(), scanner.Request{URL: server.URL, Limit: 5})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	entry, ok := records[0].(domain.VideoEntry)
	if !ok {
		t.Fatalf("expected VideoEntry, got %T", records[0])
	}
	if entry.VideoID != "abc123XYZ00" {
		t.Fatalf("unexpected video id: %q", entry.VideoID)
	}
	if entry.ChannelName != "Harbor Light TV" {
		t.Fatalf("unexpected channel: %q", entry.ChannelName)
	}
	if entry.Description != "Record turnout at the food drive." {
		t.Fatalf("unexpected description: %q", entry.Description)
	}
	if entry.Width != 480 || entry.Height != 360 {
		t.Fatalf("unexpected thumbnail size: %dx%d", entry.Width, entry.Height)
	}
}

func TestVideoScannerSearch(t *testing.T) {
	t.Parallel()

	queries := make(chan url.Values, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
		  {"id":{"videoId":"vid00000001"},"snippet":{"title":"Gala night","description":"Harbor Light gala","channelTitle":"City TV",
		   "publishedAt":"2026-03-03T08:00:00Z","thumbnails":{"high":{"url":"https://i.ytimg.com/vi/vid00000001/hqdefault.jpg","width":480,"height":360}}}},
		  {"id":{"channelId":"skip-me"},"snippet":{"title":"channel result"}}
		]}`))
	}))
	defer server.Close()

	sc := NewVideoScanner(server.Client(), nil, "")
	records, err := sc.Scan(context.Background(), scanner.Request{
		URL:     server.URL,
		Limit:   7,
		Options: map[string]string{"query": "harbor light", "apiKey": "k-1"},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	q := <-queries
	if q.Get("q") != "harbor light" || q.Get("key") != "k-1" || q.Get("maxResults") != "7" {
		t.Fatalf("unexpected query params: %s", q.Encode())
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 video, got %d", len(records))
	}
	entry := records[0].(domain.VideoEntry)
	if entry.Published == nil || entry.ChannelName != "City TV" || entry.ThumbnailURL == "" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
