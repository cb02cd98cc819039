package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/lease"
	"ContentCurator/internal/infrastructure/llm"
	"ContentCurator/internal/infrastructure/parser"
	"ContentCurator/internal/infrastructure/scheduler"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/infrastructure/telegram"
	"ContentCurator/internal/logging"
	"ContentCurator/internal/normalize"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/relevance"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/scoring"
	"ContentCurator/internal/transport/httpapi"
	"ContentCurator/internal/usecase"
	"ContentCurator/pkg/logger"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	store     ports.ContentStore
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New connects the store and optional Redis lease, then builds the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	runLease, err := a.openLease(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	limiter := parser.NewHostRateLimiter(cfg.Fetch.HostInterval)
	fetchClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	registry := scanner.NewRegistry()
	registry.Register(parser.NewFeedScanner(fetchClient, limiter, cfg.Fetch.UserAgent))
	registry.Register(parser.NewVideoScanner(fetchClient, limiter, cfg.Fetch.UserAgent))
	registry.Register(parser.NewSearchScanner(fetchClient, limiter, cfg.Fetch.UserAgent))
	source := parser.NewStrategySource(registry, cfg.Sources, cfg.Fetch, baseLogger.With("component", "source"))

	filter := relevance.New(cfg.Keywords)
	var model ports.ModelClient
	if cfg.Model.APIKey != "" {
		model = llm.NewChatGPTClient(cfg.Model, &http.Client{Timeout: cfg.Model.Timeout})
	}
	scorer := scoring.New(model, scoring.NewFallback(filter), scoring.Options{
		BatchSize:    cfg.Model.BatchSize,
		Timeout:      cfg.Model.Timeout,
		SystemPrompt: cfg.Model.SystemPrompt,
	}, baseLogger.With("component", "scorer"))

	var notifier ports.Notifier
	if telegram.Enabled(cfg.Notifications.Telegram) {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	deps := usecase.PipelineDeps{
		Source:     source,
		Store:      a.store,
		Lease:      runLease,
		Notifier:   notifier,
		Normalizer: normalize.New(cfg.Curation.DescriptionMaxRunes, nil),
		Filter:     filter,
		Scorer:     scorer,
		Defaults:   cfg.Curation,
		Logger:     baseLogger.With("component", "pipeline"),
	}
	if s, ok := a.store.(ports.SettingsStore); ok {
		deps.Settings = s
	}
	if r, ok := a.store.(ports.RunLog); ok {
		deps.RunLog = r
	}
	a.pipeline = usecase.NewPipeline(deps)

	kinds := make([]domain.Kind, 0, len(cfg.Scheduler.Kinds))
	for _, raw := range cfg.Scheduler.Kinds {
		kind, err := domain.ParseKind(raw)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("scheduler kinds: %w", err)
		}
		kinds = append(kinds, kind)
	}
	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(),
		logger.New("cron", baseLogger, slog.LevelInfo))
	a.scheduler = usecase.NewScheduler(driver, a.pipeline, kinds, baseLogger.With("component", "scheduler"))

	a.server = httpapi.NewServer(cfg.HTTP, a.pipeline, a.store, baseLogger.With("component", "http"))
	return a, nil
}

func (a *Application) openStore(ctx context.Context) error {
	if a.cfg.Database.Driver == "memory" {
		a.logger.Warn("using in-memory store, content is lost on exit")
		a.store = storage.NewMemoryRepository()
		return nil
	}

	pool, err := storage.OpenPool(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	a.pool = pool
	if a.cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, pool, a.logger.With("component", "migrate")); err != nil {
			return err
		}
	}
	a.store = storage.NewPostgresRepository(pool)
	return nil
}

func (a *Application) openLease(ctx context.Context) (ports.Lease, error) {
	if a.cfg.Redis.Addr == "" {
		return lease.Noop{}, nil
	}
	client, err := lease.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return lease.NewRedisLease(client, a.cfg.Redis.LeaseTTL), nil
}

// RunOnce performs a single curation run for the kind.
func (a *Application) RunOnce(ctx context.Context, kind domain.Kind, reset bool) (domain.RunSummary, error) {
	return a.pipeline.Run(ctx, usecase.RunRequest{Kind: kind, Reset: reset})
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	return a.server.Start(ctx)
}

// Schedule runs the cron driver and the HTTP API until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "kinds", a.cfg.Scheduler.Kinds)

	serveErr := a.server.Start(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return errors.Join(serveErr, a.scheduler.Stop(stopCtx))
}

// Migrate applies schema migrations; only meaningful for the postgres driver.
func (a *Application) Migrate(ctx context.Context) error {
	if a.pool == nil {
		return fmt.Errorf("migrations need the postgres driver, got %q", a.cfg.Database.Driver)
	}
	return storage.Migrate(ctx, a.pool, a.logger.With("component", "migrate"))
}

// Close releases pooled connections.
func (a *Application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
