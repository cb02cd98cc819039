package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// Writer validates drafts and upserts them by natural key.
type Writer struct {
	store ports.ContentStore
	now   func() time.Time
	newID func() string
}

// NewWriter wires the content store; now defaults to time.Now.
func NewWriter(store ports.ContentStore, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{store: store, now: now, newID: uuid.NewString}
}

// Upsert never returns an error: store failures become rejected results.
func (w *Writer) Upsert(ctx context.Context, d domain.Draft, score int, settings domain.Settings) domain.UpsertResult {
	if err := d.Validate(); err != nil {
		return domain.UpsertResult{Outcome: domain.OutcomeRejected, Err: err}
	}

	score = domain.ClampScore(score)
	status := domain.StatusPending
	if score >= settings.PublishThreshold {
		status = domain.StatusApproved
	}

	now := w.now().UTC()
	item := domain.ContentItem{
		ID:           w.newID(),
		Kind:         d.Kind,
		NaturalKey:   d.NaturalKey,
		Title:        d.Title,
		Description:  d.Description,
		Language:     d.Language,
		SourceName:   d.SourceName,
		Score:        score,
		Status:       status,
		MediaType:    d.MediaType,
		ImageURL:     d.ImageURL,
		ThumbnailURL: d.ThumbnailURL,
		EmbedURL:     d.EmbedURL,
		Width:        d.Width,
		Height:       d.Height,
		PublishedAt:  d.PublishedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = now
	}

	outcome, err := w.store.Upsert(ctx, item, settings.PublishThreshold)
	if err != nil {
		return domain.UpsertResult{Outcome: domain.OutcomeRejected, Err: fmt.Errorf("store %s: %w", d.NaturalKey, err)}
	}
	return domain.UpsertResult{Outcome: outcome}
}
