package usecase

import (
	"context"
	"fmt"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// Sweeper evicts aged, low-value items.
type Sweeper struct {
	store ports.ContentStore
	now   func() time.Time
}

// NewSweeper wires the content store; now defaults to time.Now.
func NewSweeper(store ports.ContentStore, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: store, now: now}
}

// Sweep deletes items older than maxAge scoring below minScore. Featured items stay.
func (s *Sweeper) Sweep(ctx context.Context, kind domain.Kind, maxAge time.Duration, minScore int) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge)
	deleted, err := s.store.Sweep(ctx, kind, cutoff, minScore)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", kind, err)
	}
	return deleted, nil
}
