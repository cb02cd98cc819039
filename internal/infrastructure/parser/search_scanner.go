package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
)

// Default selectors; each can be overridden through the source options.
const (
	defaultItemSelector    = ".result"
	defaultTitleSelector   = "a"
	defaultSnippetSelector = ".snippet"
	defaultImageSelector   = "img"
	defaultSourceSelector  = ".source"
	defaultDateSelector    = "time"
)

// SearchScanner crawls a search-engine result page and extracts hits.
type SearchScanner struct {
	fetch fetcher
}

// NewSearchScanner wires an HTTP client; a nil client gets a 20s timeout default.
func NewSearchScanner(client *http.Client, limiter *HostRateLimiter, userAgent string) *SearchScanner {
	return &SearchScanner{fetch: newFetcher(client, limiter, userAgent)}
}

// Name identifies the strategy inside the registry.
func (s *SearchScanner) Name() string {
	return "search"
}

// Scan requests the result page for options.query and parses every result block.
func (s *SearchScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawRecord, error) {
	pageURL, err := buildQueryURL(req.URL, req.Option("queryParam", "q"), req.Option("query", ""))
	if err != nil {
		return nil, err
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	var records []domain.RawRecord
	doc.Find(req.Option("item", defaultItemSelector)).Each(func(_ int, sel *goquery.Selection) {
		hit, ok := parseHit(sel, req, base)
		if ok {
			records = append(records, hit)
		}
	})
	return scanner.Cap(records, req.Limit), nil
}

func (s *SearchScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.fetch.get(ctx, pageURL, "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func parseHit(sel *goquery.Selection, req scanner.Request, base *url.URL) (domain.SearchHit, bool) {
	link := sel.Find(req.Option("title", defaultTitleSelector)).First()
	href, _ := link.Attr("href")
	href = resolve(base, strings.TrimSpace(href))
	if href == "" {
		return domain.SearchHit{}, false
	}

	hit := domain.SearchHit{
		URL:        href,
		Title:      strings.TrimSpace(link.Text()),
		Snippet:    strings.TrimSpace(sel.Find(req.Option("snippet", defaultSnippetSelector)).First().Text()),
		SourceName: strings.TrimSpace(sel.Find(req.Option("source", defaultSourceSelector)).First().Text()),
	}

	img := sel.Find(req.Option("image", defaultImageSelector)).First()
	if src := firstAttr(img, "data-src", "src"); src != "" {
		hit.ImageURL = resolve(base, src)
		hit.Width = atoi(firstAttr(img, "data-width", "width"))
		hit.Height = atoi(firstAttr(img, "data-height", "height"))
	}

	date := sel.Find(req.Option("date", defaultDateSelector)).First()
	if dt, ok := date.Attr("datetime"); ok {
		hit.PublishedRaw = strings.TrimSpace(dt)
	} else {
		hit.PublishedRaw = strings.TrimSpace(date.Text())
	}
	return hit, true
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func buildQueryURL(base, param, query string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}
	if query == "" {
		return parsed.String(), nil
	}

	q := parsed.Query()
	q.Set(param, query)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
