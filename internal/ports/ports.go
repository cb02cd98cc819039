package ports

import (
	"context"
	"time"

	"ContentCurator/internal/domain"
)

// SourceResult is what one configured source produced during a run.
// Err is set when the fetch failed; Records is then empty.
type SourceResult struct {
	SourceName string
	Records    []domain.RawRecord
	Err        error
}

// ContentSource pulls raw records from every source configured for a kind.
type ContentSource interface {
	Fetch(ctx context.Context, kind domain.Kind) []SourceResult
}

// ContentStore persists curated items, one table per kind.
type ContentStore interface {
	// Upsert inserts by natural key or merges into the existing row following
	// the max-score / coalesce-visual / overwrite-text rules.
	Upsert(ctx context.Context, item domain.ContentItem, publishThreshold int) (domain.UpsertOutcome, error)
	Sweep(ctx context.Context, kind domain.Kind, cutoff time.Time, minScore int) (int64, error)
	Reset(ctx context.Context, kind domain.Kind) (int64, error)
	ListPublished(ctx context.Context, kind domain.Kind, limit int) ([]domain.ContentItem, error)
}

// SettingsStore reads the key/value tunables table.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// RunLog records curation runs for observability.
type RunLog interface {
	StartRun(ctx context.Context, run domain.CurationRun) error
	FinishRun(ctx context.Context, run domain.CurationRun) error
}

// ModelClient sends one prompt to a chat-completion model and returns the raw reply.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Lease guards a kind against overlapping runs. The returned func releases it.
type Lease interface {
	Acquire(ctx context.Context, kind domain.Kind) (func(context.Context) error, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
