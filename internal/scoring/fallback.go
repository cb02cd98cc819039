package scoring

import (
	"ContentCurator/internal/domain"
	"ContentCurator/internal/relevance"
)

// Weights of the keyword heuristic.
const (
	FallbackBase        = 30
	FallbackTier1Weight = 20
	FallbackPairWeight  = 10
	FallbackTermWeight  = 5

	// FallbackCeiling keeps heuristic scores strictly below what the model can award.
	FallbackCeiling = 85
)

// Fallback scores drafts from keyword matches alone.
type Fallback struct {
	filter *relevance.Filter
}

// NewFallback shares the relevance vocabulary with the filter stage.
func NewFallback(filter *relevance.Filter) *Fallback {
	return &Fallback{filter: filter}
}

// Score is deterministic for a given draft and vocabulary.
func (f *Fallback) Score(d domain.Draft) int {
	if f == nil || f.filter == nil {
		return FallbackBase
	}
	m := f.filter.Explain(d.Text())
	if len(m.Excluded) > 0 {
		return 0
	}

	score := FallbackBase + FallbackTier1Weight*len(m.Tier1)
	if len(m.Ambiguous) > 0 && len(m.Qualifiers) > 0 {
		score += FallbackPairWeight
	}
	score += FallbackTermWeight * (len(m.Qualifiers) + len(m.Positive))

	if score > FallbackCeiling {
		score = FallbackCeiling
	}
	return domain.ClampScore(score)
}
