package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/usecase"
)

const secret = "trigger-secret-for-tests"

type stubRunner struct {
	got     []usecase.RunRequest
	summary domain.RunSummary
	err     error
}

func (s *stubRunner) Run(_ context.Context, req usecase.RunRequest) (domain.RunSummary, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return domain.RunSummary{}, s.err
	}
	summary := s.summary
	summary.Kind = req.Kind
	return summary, nil
}

func newTestServer(runner Runner, triggerSecret string) *Server {
	store := storage.NewMemoryRepository()
	return NewServer(config.HTTPConfig{TriggerSecret: triggerSecret, ListLimit: 50}, runner, store, nil)
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTriggerRunAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
		token  string
		want   int
	}{
		{"valid token", secret, secret, http.StatusOK},
		{"missing token", secret, "", http.StatusUnauthorized},
		{"wrong token", secret, "nope", http.StatusForbidden},
		{"secret not configured", "", "anything", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := &stubRunner{}
			srv := newTestServer(runner, tt.secret)

			rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/curation/news/runs", tt.token)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusOK {
				assert.Empty(t, runner.got)
			}
		})
	}
}

func TestTriggerRunReturnsSummary(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{summary: domain.RunSummary{
		RunID: "run-1", Fetched: 12, Added: 4, Updated: 2, Skipped: 6, Deleted: 1, AICalls: 3,
		Errors: []string{"blog: status 502"},
	}}
	srv := newTestServer(runner, secret)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/curation/media/runs?reset=true", secret)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runner.got, 1)
	assert.Equal(t, usecase.RunRequest{Kind: domain.KindMedia, Reset: true}, runner.got[0])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "media", body["kind"])
	assert.EqualValues(t, 12, body["fetched"])
	assert.EqualValues(t, 4, body["added"])
	assert.EqualValues(t, 3, body["ai_calls"])
	assert.Equal(t, []interface{}{"blog: status 502"}, body["errors"])
}

func TestTriggerRunErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"unknown kind", "/api/v1/curation/podcast/runs", nil, http.StatusBadRequest},
		{"bad reset flag", "/api/v1/curation/news/runs?reset=maybe", nil, http.StatusBadRequest},
		{"lease held", "/api/v1/curation/news/runs", fmt.Errorf("%w: news", domain.ErrRunInProgress), http.StatusConflict},
		{"model missing", "/api/v1/curation/news/runs", domain.ErrModelNotConfigured, http.StatusInternalServerError},
		{"unexpected", "/api/v1/curation/news/runs", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&stubRunner{err: tt.err}, secret)
			rec := do(t, srv.Handler(), http.MethodPost, tt.target, secret)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestModelMissingSaysConfigurationError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubRunner{err: domain.ErrModelNotConfigured}, secret)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/curation/news/runs", secret)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "configuration error")
}

func TestListContent(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryRepository()
	published := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, status := range []domain.Status{domain.StatusApproved, domain.StatusPending, domain.StatusFeatured} {
		store.Put(domain.ContentItem{
			ID:          fmt.Sprintf("id-%d", i),
			Kind:        domain.KindNews,
			NaturalKey:  fmt.Sprintf("https://news.example.org/%d", i),
			Title:       fmt.Sprintf("Item %d", i),
			Score:       70 + i,
			Status:      status,
			PublishedAt: published,
		})
	}
	srv := NewServer(config.HTTPConfig{ListLimit: 50}, &stubRunner{}, store, nil)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/v1/content/news", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "featured", body.Items[0].Status)
	assert.Equal(t, "https://news.example.org/0", body.Items[1].URL)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/v1/content/news?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/v1/content/news?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/v1/content/podcast", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubRunner{}, secret)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestTriggerRunWithoutSecretNamesConfiguration(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	srv := newTestServer(runner, "")
	rec := do(t, srv.Handler(), http.MethodPost, "/api/v1/curation/news/runs", "anything")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrTriggerNotConfigured.Error())
	assert.Empty(t, runner.got)
}
