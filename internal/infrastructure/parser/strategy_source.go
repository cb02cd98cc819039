package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/scanner"
)

// StrategySource implements ContentSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SourceConfig
	fetch    config.FetchConfig
	logger   *slog.Logger
}

var _ ports.ContentSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sites []config.SourceConfig, fetch config.FetchConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		fetch:    fetch,
		logger:   log,
	}
}

// Fetch runs every source of the kind and returns one result per source in config order.
// A failing source never affects the others.
func (s *StrategySource) Fetch(ctx context.Context, kind domain.Kind) []ports.SourceResult {
	var sites []config.SourceConfig
	for _, site := range s.sites {
		if site.Kind == string(kind) {
			sites = append(sites, site)
		}
	}
	s.debug("fetch sources", "kind", kind, "sources", len(sites))

	results := make([]ports.SourceResult, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	if s.fetch.Concurrency > 0 {
		g.SetLimit(s.fetch.Concurrency)
	}
	for i, site := range sites {
		g.Go(func() error {
			records, err := s.fetchOne(gctx, kind, site)
			results[i] = ports.SourceResult{SourceName: site.Name, Records: records, Err: err}
			if err != nil {
				s.warn("source failed", "source", site.Name, "error", err)
			} else {
				s.debug("source produced records", "source", site.Name, "count", len(records))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *StrategySource) fetchOne(ctx context.Context, kind domain.Kind, site config.SourceConfig) ([]domain.RawRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, err
	}

	timeout := s.fetch.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limit := site.MaxItems
	if limit <= 0 {
		limit = s.fetch.MaxItemsPerSource
	}

	records, err := strategy.Scan(ctx, scanner.Request{
		SourceName: site.Name,
		Kind:       kind,
		URL:        site.URL,
		Limit:      limit,
		Options:    site.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", site.Name, err)
	}
	return scanner.Cap(records, limit), nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
