// Package scoring assigns 0-100 scores to drafts, asking a model in batches
// and falling back to a keyword heuristic whenever the model cannot answer.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const (
	defaultBatchSize = 5
	defaultTimeout   = 30 * time.Second
)

// DefaultRubric is the system prompt used when none is configured.
const DefaultRubric = `You rate content for a community site about the Harbor Light Foundation and its founder Marisol Vega.
Score every numbered item from 0 to 100:
- 90-100: directly about the foundation, its volunteers or Marisol Vega's charity work, and positive in tone.
- 60-89: clearly related and neutral or positive.
- 30-59: tangential mention or weak connection.
- 0-29: off-topic, negative, or about someone or something else with a similar name.
Reply with a JSON array of integers only, one per item, in the same order. No prose.`

// ErrMalformedResponse marks a model reply that is not a JSON integer array of the right length.
var ErrMalformedResponse = errors.New("malformed model response")

// Options tunes the model path.
type Options struct {
	BatchSize    int
	Timeout      time.Duration
	SystemPrompt string
}

// BatchResult carries one score per draft in input order.
type BatchResult struct {
	Scores    []int
	AICalls   int
	Fallbacks int
}

// Scorer is safe for concurrent use.
type Scorer struct {
	client    ports.ModelClient
	fallback  *Fallback
	breaker   *gobreaker.CircuitBreaker
	batchSize int
	timeout   time.Duration
	rubric    string
	logger    *slog.Logger
}

// New wires a model client (nil means heuristic only) with the fallback scorer.
func New(client ports.ModelClient, fallback *Fallback, opts Options, log *slog.Logger) *Scorer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = DefaultRubric
	}

	s := &Scorer{
		client:    client,
		fallback:  fallback,
		batchSize: opts.BatchSize,
		timeout:   opts.Timeout,
		rubric:    opts.SystemPrompt,
		logger:    log,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-scoring",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

// HasModel reports whether a model client is wired.
func (s *Scorer) HasModel() bool {
	return s != nil && s.client != nil
}

// ScoreBatch never fails: every batch the model cannot score is scored by the fallback.
func (s *Scorer) ScoreBatch(ctx context.Context, drafts []domain.Draft) BatchResult {
	res := BatchResult{Scores: make([]int, 0, len(drafts))}
	for start := 0; start < len(drafts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(drafts) {
			end = len(drafts)
		}
		batch := drafts[start:end]

		scores, called, err := s.scoreWithModel(ctx, batch)
		if called {
			res.AICalls++
		}
		if err != nil {
			s.debug("model scoring failed, using fallback", "batch", len(batch), "error", err)
			scores = s.fallbackScores(batch)
			res.Fallbacks += len(batch)
		}
		res.Scores = append(res.Scores, scores...)
	}
	return res
}

func (s *Scorer) scoreWithModel(ctx context.Context, batch []domain.Draft) ([]int, bool, error) {
	if s.client == nil {
		return nil, false, domain.ErrModelNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	called := false
	out, err := s.breaker.Execute(func() (interface{}, error) {
		called = true
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		reply, err := s.client.Complete(callCtx, s.rubric, BuildPrompt(batch))
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}
		return ParseScores(reply, len(batch))
	})
	if err != nil {
		return nil, called, err
	}
	return out.([]int), called, nil
}

func (s *Scorer) fallbackScores(batch []domain.Draft) []int {
	scores := make([]int, len(batch))
	for i, d := range batch {
		scores[i] = s.fallback.Score(d)
	}
	return scores
}

// BuildPrompt lists the batch as numbered items.
func BuildPrompt(batch []domain.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rate these %d items:\n", len(batch))
	for i, d := range batch {
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, oneLine(d.Title))
		if d.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", oneLine(d.Description))
		}
		if d.SourceName != "" {
			fmt.Fprintf(&b, "   Source: %s\n", oneLine(d.SourceName))
		}
	}
	return b.String()
}

// ParseScores accepts a bare JSON integer array, optionally inside a code fence.
func ParseScores(reply string, want int) ([]int, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var scores []int
	if err := json.Unmarshal([]byte(text), &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("%w: got %d scores for %d items", ErrMalformedResponse, len(scores), want)
	}
	for i, v := range scores {
		scores[i] = domain.ClampScore(v)
	}
	return scores, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *Scorer) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Scorer) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
