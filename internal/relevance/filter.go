// Package relevance decides whether a draft is on-topic for the site.
//
// A draft passes when it mentions an unambiguous (tier-1) term, or an
// ambiguous term together with at least one contextual qualifier. Any
// exclusion term rejects the draft regardless of matches.
package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
)

// Match lists which vocabulary terms were found in a text.
type Match struct {
	Tier1      []string
	Ambiguous  []string
	Qualifiers []string
	Excluded   []string
	Positive   []string
}

// Relevant applies the tier rules to a match.
func (m Match) Relevant() bool {
	if len(m.Excluded) > 0 {
		return false
	}
	if len(m.Tier1) > 0 {
		return true
	}
	return len(m.Ambiguous) > 0 && len(m.Qualifiers) > 0
}

// Filter is pure and safe for concurrent use.
type Filter struct {
	tier1      []string
	ambiguous  []string
	qualifiers []string
	exclusions []string
	positive   []string
}

// New prepares the vocabulary; terms are normalized the same way as texts.
func New(kw config.KeywordConfig) *Filter {
	return &Filter{
		tier1:      prepare(kw.Tier1),
		ambiguous:  prepare(kw.Ambiguous),
		qualifiers: prepare(kw.Qualifiers),
		exclusions: prepare(kw.Exclusions),
		positive:   prepare(kw.Positive),
	}
}

// IsRelevant reports whether the draft is in scope.
func (f *Filter) IsRelevant(d domain.Draft) bool {
	return f.Explain(d.Text()).Relevant()
}

// Explain returns every vocabulary term present in text.
func (f *Filter) Explain(text string) Match {
	t := Normalize(text)
	return Match{
		Tier1:      matchAll(t, f.tier1),
		Ambiguous:  matchAll(t, f.ambiguous),
		Qualifiers: matchAll(t, f.qualifiers),
		Excluded:   matchAll(t, f.exclusions),
		Positive:   matchAll(t, f.positive),
	}
}

// Normalize folds width variants and case so "ＨＡＲＢＯＲ" matches "harbor".
func Normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func prepare(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(Normalize(term))
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

func matchAll(text string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if containsTerm(text, term) {
			found = append(found, term)
		}
	}
	return found
}

// containsTerm matches term only at word boundaries, so "council" does not hit "counseling".
func containsTerm(text, term string) bool {
	for start := 0; start <= len(text)-len(term); {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		begin := start + idx
		end := begin + len(term)
		if boundaryBefore(text, begin) && boundaryAfter(text, end) {
			return true
		}
		start = begin + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

// isWordRune includes combining marks: Indic vowel signs and viramas sit inside words.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
