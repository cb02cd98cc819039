package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/relevance"
	"ContentCurator/internal/scoring"
)

type fakeSource struct {
	results []ports.SourceResult
	calls   int
}

func (f *fakeSource) Fetch(context.Context, domain.Kind) []ports.SourceResult {
	f.calls++
	return f.results
}

// fixedModel answers every batch with the same score per item.
type fixedModel struct {
	score int
	calls int
}

func (m *fixedModel) Complete(_ context.Context, _ string, prompt string) (string, error) {
	m.calls++
	var n int
	if _, err := fmt.Sscanf(prompt, "Rate these %d items", &n); err != nil {
		return "", err
	}
	scores := make([]string, n)
	for i := range scores {
		scores[i] = fmt.Sprint(m.score)
	}
	return "[" + strings.Join(scores, ",") + "]", nil
}

type heldLease struct{}

func (heldLease) Acquire(_ context.Context, kind domain.Kind) (func(context.Context) error, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, kind)
}

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) PublishDigest(_ context.Context, digest string) error {
	c.messages = append(c.messages, digest)
	return nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func curationDefaults() config.CurationConfig {
	return config.CurationConfig{MinScore: 60, RetentionMinScore: 50, CleanupDays: 30, DescriptionMaxRunes: 500}
}

func newTestPipeline(src ports.ContentSource, model ports.ModelClient, store *storage.MemoryRepository, clk *clock) *Pipeline {
	filter := relevance.New(config.DefaultKeywords())
	return NewPipeline(PipelineDeps{
		Source:   src,
		Store:    store,
		Settings: store,
		RunLog:   store,
		Filter:   filter,
		Scorer:   scoring.New(model, scoring.NewFallback(filter), scoring.Options{BatchSize: 5}, nil),
		Defaults: curationDefaults(),
		Now:      clk.Now,
	})
}

func feedEntry(link, title string, published time.Time) domain.FeedEntry {
	return domain.FeedEntry{Link: link, Title: title, Published: &published}
}

func newsResults(published time.Time) []ports.SourceResult {
	return []ports.SourceResult{{
		SourceName: "community-news",
		Records: []domain.RawRecord{
			feedEntry("https://news.example.org/shelter", "Harbor Light Foundation opens new shelter", published),
			feedEntry("https://news.example.org/food-drive", "Marisol leads volunteers at the food drive", published),
			feedEntry("https://news.example.org/trees", "Harbor Light Volunteers plant 500 trees", published),
			feedEntry("https://news.example.org/markets", "Stock markets close higher", published),
		},
	}}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryRepository()
	model := &fixedModel{score: 90}
	src := &fakeSource{results: newsResults(clk.now.Add(-24 * time.Hour))}
	p := newTestPipeline(src, model, store, clk)
	ctx := context.Background()

	first, err := p.Run(ctx, RunRequest{Kind: domain.KindNews})
	require.NoError(t, err)
	assert.Equal(t, 4, first.Fetched)
	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, 1, first.Skipped)
	assert.Equal(t, 1, first.AICalls)
	assert.Empty(t, first.Errors)

	before, ok := store.Get(domain.KindNews, "https://news.example.org/shelter")
	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, before.Status)

	clk.now = clk.now.Add(time.Hour)
	second, err := p.Run(ctx, RunRequest{Kind: domain.KindNews})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 3, second.Updated)
	assert.Equal(t, 3, store.Count(domain.KindNews))

	after, _ := store.Get(domain.KindNews, "https://news.example.org/shelter")
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestRunToleratesFailingSource(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	published := clk.now.Add(-time.Hour)
	src := &fakeSource{results: []ports.SourceResult{
		{SourceName: "wire", Records: []domain.RawRecord{
			feedEntry("https://wire.example.org/1", "Harbor Light Foundation opens new shelter", published),
			feedEntry("https://wire.example.org/2", "Harbor Light Foundation wins award", published),
		}},
		{SourceName: "blog", Err: errors.New("status 502")},
		{SourceName: "radio", Records: []domain.RawRecord{
			feedEntry("https://radio.example.org/1", "Marisol Vega thanks donors", published),
		}},
	}}
	store := storage.NewMemoryRepository()
	p := newTestPipeline(src, &fixedModel{score: 80}, store, clk)

	summary, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews})
	require.NoError(t, err)
	assert.Equal(t, []string{"blog: status 502"}, summary.Errors)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 3, summary.Added)

	run, ok := store.Run(summary.RunID)
	require.True(t, ok)
	assert.Equal(t, "news: wire, blog, radio", run.SourceLabel)
	assert.Equal(t, summary.Errors, run.Errors)
	assert.False(t, run.CompletedAt.IsZero())
}

func TestRunFailsFastWithoutModel(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	src := &fakeSource{results: newsResults(clk.now)}
	p := newTestPipeline(src, nil, storage.NewMemoryRepository(), clk)

	_, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews})
	require.ErrorIs(t, err, domain.ErrModelNotConfigured)
	assert.Zero(t, src.calls)
}

func TestRunRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	p := newTestPipeline(&fakeSource{}, &fixedModel{score: 50}, storage.NewMemoryRepository(), clk)

	_, err := p.Run(context.Background(), RunRequest{Kind: "podcast"})
	require.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestRunValidatesHeroDimensions(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	src := &fakeSource{results: []ports.SourceResult{{
		SourceName: "image-search",
		Records: []domain.RawRecord{
			domain.SearchHit{
				URL:      "https://photos.example.org/small",
				Title:    "Harbor Light Foundation gala banner",
				ImageURL: "https://img.example.org/small.jpg",
				Width:    800, Height: 600,
			},
			domain.SearchHit{
				URL:      "https://photos.example.org/large",
				Title:    "Harbor Light Foundation gala banner",
				ImageURL: "https://img.example.org/large.jpg",
				Width:    1600, Height: 900,
			},
		},
	}}}
	store := storage.NewMemoryRepository()
	p := newTestPipeline(src, &fixedModel{score: 95}, store, clk)

	summary, err := p.Run(context.Background(), RunRequest{Kind: domain.KindHero})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)

	_, ok := store.Get(domain.KindHero, "https://photos.example.org/small")
	assert.False(t, ok)
	large, ok := store.Get(domain.KindHero, "https://photos.example.org/large")
	require.True(t, ok)
	assert.Equal(t, 1600, large.Width)
}

func TestRunSweepsAgedLowScoreItems(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryRepository()
	store.SetSetting("retention_min_score", "50")
	store.SetSetting("news.cleanup_days", "30")

	day := 24 * time.Hour
	for _, seed := range []struct {
		key    string
		age    time.Duration
		score  int
		status domain.Status
	}{
		{"old-low", 40 * day, 30, domain.StatusPending},
		{"recent-low", 10 * day, 30, domain.StatusPending},
		{"old-featured", 40 * day, 10, domain.StatusFeatured},
		{"old-high", 40 * day, 90, domain.StatusApproved},
	} {
		store.Put(domain.ContentItem{
			ID: seed.key, Kind: domain.KindNews, NaturalKey: seed.key,
			Score: seed.score, Status: seed.status, PublishedAt: clk.now.Add(-seed.age),
		})
	}

	p := newTestPipeline(&fakeSource{results: []ports.SourceResult{{SourceName: "quiet"}}}, &fixedModel{score: 90}, store, clk)
	summary, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Deleted)

	_, ok := store.Get(domain.KindNews, "old-low")
	assert.False(t, ok)
	assert.Equal(t, 3, store.Count(domain.KindNews))
}

func TestRunResetClearsKind(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryRepository()
	store.Put(domain.ContentItem{ID: "stale", Kind: domain.KindNews, NaturalKey: "stale", Score: 99,
		Status: domain.StatusApproved, PublishedAt: clk.now})

	p := newTestPipeline(&fakeSource{results: newsResults(clk.now)}, &fixedModel{score: 70}, store, clk)
	summary, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews, Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Added)

	_, ok := store.Get(domain.KindNews, "stale")
	assert.False(t, ok)
}

func TestRunRespectsLease(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	src := &fakeSource{results: newsResults(clk.now)}
	filter := relevance.New(config.DefaultKeywords())
	store := storage.NewMemoryRepository()
	p := NewPipeline(PipelineDeps{
		Source: src, Store: store, Filter: filter, Lease: heldLease{},
		Scorer:   scoring.New(&fixedModel{score: 90}, scoring.NewFallback(filter), scoring.Options{}, nil),
		Defaults: curationDefaults(),
		Now:      clk.Now,
	})

	_, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews})
	require.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.Zero(t, src.calls)
}

func TestRunPublishesSummary(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	src := &fakeSource{results: newsResults(clk.now)}
	filter := relevance.New(config.DefaultKeywords())
	store := storage.NewMemoryRepository()
	notifier := &captureNotifier{}
	p := NewPipeline(PipelineDeps{
		Source: src, Store: store, Filter: filter, Notifier: notifier,
		Scorer:   scoring.New(&fixedModel{score: 40}, scoring.NewFallback(filter), scoring.Options{}, nil),
		Defaults: curationDefaults(),
		Now:      clk.Now,
	})

	summary, err := p.Run(context.Background(), RunRequest{Kind: domain.KindNews})
	require.NoError(t, err)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Fetched: 4, added: 3")

	item, _ := store.Get(domain.KindNews, "https://news.example.org/shelter")
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, 40, item.Score)
	assert.NotEmpty(t, summary.RunID)
}
