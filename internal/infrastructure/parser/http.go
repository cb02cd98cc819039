package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "ContentCurator/1.0"

// fetcher performs paced GET requests and rejects non-2xx answers.
type fetcher struct {
	client    *http.Client
	limiter   *HostRateLimiter
	userAgent string
}

func newFetcher(client *http.Client, limiter *HostRateLimiter, userAgent string) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return fetcher{client: client, limiter: limiter, userAgent: userAgent}
}

// get returns the response body; the caller must close it.
func (f fetcher) get(ctx context.Context, target, accept string) (io.ReadCloser, error) {
	if err := f.limiter.WaitForHost(ctx, target); err != nil {
		return nil, fmt.Errorf("pace request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("upstream returned %s", resp.Status)
	}
	return resp.Body, nil
}
