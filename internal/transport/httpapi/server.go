// Package httpapi exposes the run trigger and the published-content listing over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/usecase"
	"ContentCurator/pkg/logger"
)

const (
	maxListLimit    = 500
	shutdownTimeout = 10 * time.Second
)

// Runner executes one curation run; *usecase.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req usecase.RunRequest) (domain.RunSummary, error)
}

// Server owns the echo instance and its routes.
type Server struct {
	echo   *echo.Echo
	runner Runner
	store  ports.ContentStore
	cfg    config.HTTPConfig
	logger *slog.Logger
}

// NewServer registers every route. store may be nil when listing is not needed.
func NewServer(cfg config.HTTPConfig, runner Runner, store ports.ContentStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 50
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.StdLogger = logger.New("http", log, slog.LevelError)

	s := &Server{echo: e, runner: runner, store: store, cfg: cfg, logger: log}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.POST("/curation/:kind/runs", s.triggerRun, BearerAuth(cfg.TriggerSecret))
	api.GET("/content/:kind", s.listContent)

	return s
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) triggerRun(c echo.Context) error {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reset := false
	if raw := c.QueryParam("reset"); raw != "" {
		reset, err = strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "reset must be a boolean")
		}
	}

	summary, err := s.runner.Run(c.Request().Context(), usecase.RunRequest{Kind: kind, Reset: reset})
	if err != nil {
		s.logger.Warn("triggered run refused", "kind", kind, "error", err)
		return mapRunError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) listContent(c echo.Context) error {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "content store is not configured")
	}

	limit := s.cfg.ListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
	}

	items, err := s.store.ListPublished(c.Request().Context(), kind, limit)
	if err != nil {
		s.logger.Error("list published", "kind", kind, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return c.JSON(http.StatusOK, listResponse{Kind: kind, Items: out})
}

func mapRunError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrUnknownKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRunInProgress):
		return echo.NewHTTPError(http.StatusConflict, "a run for this kind is already in progress")
	case errors.Is(err, domain.ErrModelNotConfigured),
		errors.Is(err, domain.ErrTriggerNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "configuration error")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
