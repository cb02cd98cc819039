package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
)

func TestBuildQueryURL(t *testing.T) {
	t.Parallel()

	u, err := buildQueryURL("https://search.example.org/images?safe=on", "q", "harbor light")
	if err != nil {
		t.Fatalf("buildQueryURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	q := parsed.Query()
	if q.Get("q") != "harbor light" {
		t.Fatalf("expected q=harbor light, got %s", q.Get("q"))
	}
	if q.Get("safe") != "on" {
		t.Fatalf("existing params must survive, got %s", parsed.RawQuery)
	}
}

func TestParseHit(t *testing.T) {
	t.Parallel()

	html := `
	<div class="result">
	  <a href="/photo/42">Harbor Light Foundation gala</a>
	  <p class="snippet">Volunteers celebrate a record year.</p>
	  <span class="source">City Photos</span>
	  <img data-src="https://img.example.org/42.jpg" data-width="1600" data-height="900">
	  <time datetime="2026-03-01T12:00:00Z">1 Mar</time>
	</div>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	base, _ := url.Parse("https://search.example.org/results")

	hit, ok := parseHit(doc.Find(".result").First(), scanner.Request{}, base)
	if !ok {
		t.Fatalf("expected hit to be parsed")
	}
	if hit.URL != "https://search.example.org/photo/42" {
		t.Fatalf("unexpected url: %s", hit.URL)
	}
	if hit.Title != "Harbor Light Foundation gala" {
		t.Fatalf("unexpected title: %s", hit.Title)
	}
	if hit.Snippet != "Volunteers celebrate a record year." {
		t.Fatalf("unexpected snippet: %s", hit.Snippet)
	}
	if hit.SourceName != "City Photos" {
		t.Fatalf("unexpected source: %s", hit.SourceName)
	}
	if hit.ImageURL != "https://img.example.org/42.jpg" || hit.Width != 1600 || hit.Height != 900 {
		t.Fatalf("unexpected image: %s %dx%d", hit.ImageURL, hit.Width, hit.Height)
	}
	if hit.PublishedRaw != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected date: %s", hit.PublishedRaw)
	}
}

func TestSearchScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "gala" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`
		<ul>
		  <li class="hit"><h3><a href="https://a.example.org/1">First</a></h3></li>
		  <li class="hit"><h3><a href="javascript:void(0)">Broken</a></h3></li>
		  <li class="hit"><h3><a href="https://a.example.org/2">Second</a></h3></li>
		</ul>`))
	}))
	defer server.Close()

	sc := NewSearchScanner(server.Client(), nil, "")
	records, err := sc.Scan(context.Background(), scanner.Request{
		URL:   server.URL,
		Limit: 10,
		Options: map[string]string{
			"query":      "gala",
			"queryParam": "query",
			"item":       "li.hit",
			"title":      "h3 a",
		},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(records))
	}
	if records[1].(domain.SearchHit).URL != "https://a.example.org/2" {
		t.Fatalf("unexpected second hit: %+v", records[1])
	}
}
