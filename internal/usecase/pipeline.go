package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/metrics"
	"ContentCurator/internal/normalize"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/relevance"
	"ContentCurator/internal/scoring"
)

const releaseTimeout = 5 * time.Second

// PipelineDeps wires all driven adapters into the curation pipeline.
type PipelineDeps struct {
	Source     ports.ContentSource
	Store      ports.ContentStore
	Settings   ports.SettingsStore
	RunLog     ports.RunLog
	Lease      ports.Lease
	Notifier   ports.Notifier
	Normalizer *normalize.Normalizer
	Filter     *relevance.Filter
	Scorer     *scoring.Scorer
	Defaults   config.CurationConfig
	Logger     *slog.Logger
	Now        func() time.Time
}

// RunRequest selects the kind to curate. Reset clears the kind's table first.
type RunRequest struct {
	Kind  domain.Kind
	Reset bool
}

// Pipeline implements the curation workflow for one kind per run.
type Pipeline struct {
	source     ports.ContentSource
	store      ports.ContentStore
	settings   ports.SettingsStore
	runLog     ports.RunLog
	lease      ports.Lease
	notifier   ports.Notifier
	normalizer *normalize.Normalizer
	filter     *relevance.Filter
	scorer     *scoring.Scorer
	writer     *Writer
	sweeper    *Sweeper
	defaults   config.CurationConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	n := deps.Normalizer
	if n == nil {
		n = normalize.New(deps.Defaults.DescriptionMaxRunes, now)
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		settings:   deps.Settings,
		runLog:     deps.RunLog,
		lease:      deps.Lease,
		notifier:   deps.Notifier,
		normalizer: n,
		filter:     deps.Filter,
		scorer:     deps.Scorer,
		writer:     NewWriter(deps.Store, now),
		sweeper:    NewSweeper(deps.Store, now),
		defaults:   deps.Defaults,
		logger:     deps.Logger,
		now:        now,
	}
}

// Run executes fetch, normalize, filter, score and upsert for every source of
// the kind, then sweeps once. Source and item failures end up in the summary;
// only configuration and lease problems abort the run.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (domain.RunSummary, error) {
	if req.Kind.Table() == "" {
		return domain.RunSummary{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, req.Kind)
	}
	if !p.scorer.HasModel() {
		return domain.RunSummary{}, domain.ErrModelNotConfigured
	}
	if p.source == nil || p.store == nil || p.filter == nil {
		return domain.RunSummary{}, fmt.Errorf("pipeline is not fully wired")
	}

	if p.lease != nil {
		release, err := p.lease.Acquire(ctx, req.Kind)
		if err != nil {
			return domain.RunSummary{}, err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				p.warn("release lease", "kind", req.Kind, "error", err)
			}
		}()
	}

	settings := p.loadSettings(ctx, req.Kind)
	run := domain.CurationRun{
		RunID:       uuid.NewString(),
		Kind:        req.Kind,
		SourceLabel: string(req.Kind),
		StartedAt:   p.now().UTC(),
	}
	p.startRun(ctx, run)
	p.info("curation run started", "run_id", run.RunID, "kind", req.Kind, "reset", req.Reset,
		"threshold", settings.PublishThreshold)

	if req.Reset {
		removed, err := p.store.Reset(ctx, req.Kind)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("reset: %v", err))
		} else {
			p.info("kind reset", "kind", req.Kind, "removed", removed)
		}
	}

	fallbacks := 0
	results := p.source.Fetch(ctx, req.Kind)
	names := make([]string, 0, len(results))
	for _, res := range results {
		names = append(names, res.SourceName)
		if res.Err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: %v", res.SourceName, res.Err))
			metrics.RecordSourceError(string(req.Kind), res.SourceName)
			continue
		}
		fallbacks += p.processSource(ctx, req.Kind, res, settings, &run)
	}
	if len(names) > 0 {
		run.SourceLabel = fmt.Sprintf("%s: %s", req.Kind, strings.Join(names, ", "))
	}

	deleted, err := p.sweeper.Sweep(ctx, req.Kind, settings.MaxAge(), settings.RetentionMinScore)
	if err != nil {
		run.Errors = append(run.Errors, err.Error())
	}
	run.Deleted = deleted
	run.CompletedAt = p.now().UTC()

	p.finishRun(ctx, run)
	status := "ok"
	if len(run.Errors) > 0 {
		status = "partial"
	}
	metrics.RecordRun(metrics.RunRecord{
		Kind:      string(req.Kind),
		Status:    status,
		Seconds:   run.CompletedAt.Sub(run.StartedAt).Seconds(),
		Fetched:   run.Fetched,
		Added:     run.Added,
		Updated:   run.Updated,
		Skipped:   run.Skipped,
		Deleted:   run.Deleted,
		AICalls:   run.AICalls,
		Fallbacks: fallbacks,
	})
	p.notify(ctx, run)

	p.info("curation run finished", "run_id", run.RunID, "kind", req.Kind,
		"fetched", run.Fetched, "added", run.Added, "updated", run.Updated,
		"skipped", run.Skipped, "deleted", run.Deleted, "ai_calls", run.AICalls, "errors", len(run.Errors))
	return run.Summary(), nil
}

// processSource handles one source's records and returns how many were fallback-scored.
func (p *Pipeline) processSource(ctx context.Context, kind domain.Kind, res ports.SourceResult, settings domain.Settings, run *domain.CurationRun) int {
	run.Fetched += len(res.Records)

	relevant := make([]domain.Draft, 0, len(res.Records))
	for _, raw := range res.Records {
		d := p.normalizer.Normalize(raw, kind, res.SourceName)
		if !p.filter.IsRelevant(d) {
			run.Skipped++
			p.debug("filtered out", "source", res.SourceName, "title", d.Title)
			continue
		}
		relevant = append(relevant, d)
	}
	if len(relevant) == 0 {
		return 0
	}

	scored := p.scorer.ScoreBatch(ctx, relevant)
	run.AICalls += scored.AICalls

	for i, d := range relevant {
		result := p.writer.Upsert(ctx, d, scored.Scores[i], settings)
		switch result.Outcome {
		case domain.OutcomeCreated:
			run.Added++
		case domain.OutcomeUpdated:
			run.Updated++
		default:
			run.Skipped++
			p.debug("item rejected", "source", res.SourceName, "key", d.NaturalKey, "error", result.Err)
		}
	}
	return scored.Fallbacks
}

func (p *Pipeline) loadSettings(ctx context.Context, kind domain.Kind) domain.Settings {
	var raw map[string]string
	if p.settings != nil {
		var err error
		raw, err = p.settings.LoadSettings(ctx)
		if err != nil {
			p.warn("load settings, using defaults", "error", err)
		}
	}
	return ResolveSettings(raw, kind, p.defaults)
}

func (p *Pipeline) startRun(ctx context.Context, run domain.CurationRun) {
	if p.runLog == nil {
		return
	}
	if err := p.runLog.StartRun(ctx, run); err != nil {
		p.warn("record run start", "run_id", run.RunID, "error", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run domain.CurationRun) {
	if p.runLog == nil {
		return
	}
	if err := p.runLog.FinishRun(ctx, run); err != nil {
		p.warn("record run finish", "run_id", run.RunID, "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, run domain.CurationRun) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(run)); err != nil {
		p.warn("publish run summary", "run_id", run.RunID, "error", err)
	}
}

func buildDigestMessage(run domain.CurationRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Curation run* `%s`\n", run.Kind)
	fmt.Fprintf(&b, "Sources: %s\n", run.SourceLabel)
	fmt.Fprintf(&b, "Fetched: %d, added: %d, updated: %d, skipped: %d, deleted: %d\n",
		run.Fetched, run.Added, run.Updated, run.Skipped, run.Deleted)
	fmt.Fprintf(&b, "Model calls: %d\n", run.AICalls)
	for _, e := range run.Errors {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	return b.String()
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
