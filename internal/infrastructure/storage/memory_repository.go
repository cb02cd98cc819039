package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// MemoryRepository keeps everything in process; used by tests and the memory driver.
// Merge rules match the Postgres upsert statement.
type MemoryRepository struct {
	mu       sync.RWMutex
	items    map[domain.Kind]map[string]domain.ContentItem
	settings map[string]string
	runs     map[string]domain.CurationRun

	// FailUpsert, when set, is returned for items whose natural key it maps.
	FailUpsert map[string]error
}

var (
	_ ports.ContentStore  = (*MemoryRepository)(nil)
	_ ports.SettingsStore = (*MemoryRepository)(nil)
	_ ports.RunLog        = (*MemoryRepository)(nil)
)

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:    make(map[domain.Kind]map[string]domain.ContentItem),
		settings: make(map[string]string),
		runs:     make(map[string]domain.CurationRun),
	}
}

// Upsert mirrors INSERT ... ON CONFLICT (natural_key) DO UPDATE.
func (r *MemoryRepository) Upsert(_ context.Context, item domain.ContentItem, publishThreshold int) (domain.UpsertOutcome, error) {
	if _, err := tableFor(item.Kind); err != nil {
		return domain.OutcomeRejected, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.FailUpsert[item.NaturalKey]; err != nil {
		return domain.OutcomeRejected, err
	}

	table := r.items[item.Kind]
	if table == nil {
		table = make(map[string]domain.ContentItem)
		r.items[item.Kind] = table
	}

	existing, ok := table[item.NaturalKey]
	if !ok {
		table[item.NaturalKey] = item
		return domain.OutcomeCreated, nil
	}

	existing.Title = item.Title
	existing.Description = item.Description
	existing.Language = item.Language
	existing.SourceName = item.SourceName
	if item.Score > existing.Score {
		existing.Score = item.Score
	}
	existing.ImageURL = coalesce(existing.ImageURL, item.ImageURL)
	existing.ThumbnailURL = coalesce(existing.ThumbnailURL, item.ThumbnailURL)
	existing.EmbedURL = coalesce(existing.EmbedURL, item.EmbedURL)
	existing.MediaType = domain.MediaType(coalesce(string(existing.MediaType), string(item.MediaType)))
	if existing.Width <= 0 {
		existing.Width = item.Width
	}
	if existing.Height <= 0 {
		existing.Height = item.Height
	}
	existing.UpdatedAt = item.UpdatedAt
	if existing.Status == domain.StatusPending && existing.Score >= publishThreshold {
		existing.Status = domain.StatusApproved
	}
	table[item.NaturalKey] = existing
	return domain.OutcomeUpdated, nil
}

// Sweep deletes aged, low-scoring, non-featured items.
func (r *MemoryRepository) Sweep(_ context.Context, kind domain.Kind, cutoff time.Time, minScore int) (int64, error) {
	if _, err := tableFor(kind); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, item := range r.items[kind] {
		if item.PublishedAt.Before(cutoff) && item.Score < minScore && item.Status != domain.StatusFeatured {
			delete(r.items[kind], key)
			deleted++
		}
	}
	return deleted, nil
}

// Reset drops every item of the kind.
func (r *MemoryRepository) Reset(_ context.Context, kind domain.Kind) (int64, error) {
	if _, err := tableFor(kind); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.items[kind]))
	delete(r.items, kind)
	return n, nil
}

// ListPublished returns approved and featured items, featured first, then score and recency.
func (r *MemoryRepository) ListPublished(_ context.Context, kind domain.Kind, limit int) ([]domain.ContentItem, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var out []domain.ContentItem
	for _, item := range r.items[kind] {
		if item.Status == domain.StatusApproved || item.Status == domain.StatusFeatured {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		fi, fj := out[i].Status == domain.StatusFeatured, out[j].Status == domain.StatusFeatured
		if fi != fj {
			return fi
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns one stored item by natural key.
func (r *MemoryRepository) Get(kind domain.Kind, naturalKey string) (domain.ContentItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[kind][naturalKey]
	return item, ok
}

// Put stores an item verbatim, bypassing merge rules.
func (r *MemoryRepository) Put(item domain.ContentItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[item.Kind] == nil {
		r.items[item.Kind] = make(map[string]domain.ContentItem)
	}
	r.items[item.Kind][item.NaturalKey] = item
}

// Count reports the number of stored items of a kind.
func (r *MemoryRepository) Count(kind domain.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[kind])
}

// SetSetting writes one tunable.
func (r *MemoryRepository) SetSetting(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
}

// LoadSettings returns a copy of the tunables.
func (r *MemoryRepository) LoadSettings(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.settings))
	for k, v := range r.settings {
		out[k] = v
	}
	return out, nil
}

// StartRun records a run.
func (r *MemoryRepository) StartRun(_ context.Context, run domain.CurationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.RunID] = run
	return nil
}

// FinishRun replaces the stored run record.
func (r *MemoryRepository) FinishRun(_ context.Context, run domain.CurationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.RunID]; !ok {
		return fmt.Errorf("curation log %s not found", run.RunID)
	}
	r.runs[run.RunID] = run
	return nil
}

// Run returns a recorded run.
func (r *MemoryRepository) Run(id string) (domain.CurationRun, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	return run, ok
}

func coalesce(existing, incoming string) string {
	if existing != "" {
		return existing
	}
	return incoming
}
