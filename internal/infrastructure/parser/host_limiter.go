package parser

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostRateLimiter spaces consecutive requests to the same host by a fixed interval.
type HostRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

// NewHostRateLimiter returns nil for a non-positive interval, which disables pacing.
func NewHostRateLimiter(interval time.Duration) *HostRateLimiter {
	if interval <= 0 {
		return nil
	}
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// WaitForHost blocks until the host of rawURL may be hit again.
func (h *HostRateLimiter) WaitForHost(ctx context.Context, rawURL string) error {
	if h == nil {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}

	return h.limiterFor(parsed.Host).Wait(ctx)
}

func (h *HostRateLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limiter, ok := h.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = limiter
	return limiter
}
