package scanner

import (
	"context"
	"fmt"
	"sort"

	"ContentCurator/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	SourceName string
	Kind       domain.Kind
	URL        string
	Limit      int
	Options    map[string]string
}

// Option returns an option value or the fallback when absent.
func (r Request) Option(key, fallback string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single strategy implementation (feed, video, search).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.RawRecord, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Cap keeps the limit most recent records. Records without a timestamp keep
// their upstream order after the dated ones.
func Cap(records []domain.RawRecord, limit int) []domain.RawRecord {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	sorted := make([]domain.RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].RecencyHint(), sorted[j].RecencyHint()
		if ti.IsZero() || tj.IsZero() {
			return !ti.IsZero() && tj.IsZero()
		}
		return ti.After(tj)
	})
	return sorted[:limit]
}
