package names

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// =============================================================================
// SIMILARITY
// =============================================================================

// Similarity scores two strings 0-100 as 100 × (1 − distance/maxLength),
// measured in runes. Empty input scores 0.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// Comparison holds the pre-computed similarities for one target/candidate pair.
type Comparison struct {
	Target    ParsedName
	Candidate ParsedName
	Full      float64
	Last      float64
	First     float64
}

func compare(target, candidate string) Comparison {
	t, c := ParseName(target), ParseName(candidate)
	cmp := Comparison{
		Target:    t,
		Candidate: c,
		Full:      Similarity(t.Ordered(), c.Ordered()),
		Last:      Similarity(t.Last, c.Last),
	}
	if t.First != "" && c.First != "" {
		cmp.First = Similarity(t.First, c.First)
	}
	return cmp
}

func (c Comparison) exactLast() bool {
	return c.Target.Last != "" && c.Target.Last == c.Candidate.Last
}

func (c Comparison) sameInitial() bool {
	return c.Target.Initial() != 0 && c.Target.Initial() == c.Candidate.Initial()
}

// =============================================================================
// STRATEGY CHAIN
// =============================================================================

// Strategy is one named rule in the confidence cascade. Score returns false
// when the rule does not apply, passing the pair to the next strategy.
type Strategy struct {
	Name  string
	Score func(Comparison) (float64, bool)
}

// Strategy names, reported on every candidate.
const (
	StrategyExactMapping          = "exact_mapping"
	StrategyExactName             = "exact_name"
	StrategyExactLastFirstInitial = "exact_last_first_initial"
	StrategyExactLastName         = "exact_last_name"
	StrategyFullName              = "full_name"
	StrategyWeightedLastFirst     = "weighted_last_first"
	StrategyFullNameFallback      = "full_name_fallback"
)

// DefaultStrategies returns the cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: StrategyExactLastFirstInitial,
			Score: func(c Comparison) (float64, bool) {
				if c.exactLast() && c.sameInitial() {
					return math.Max(85, c.Full), true
				}
				return 0, false
			},
		},
		{
			Name: StrategyExactLastName,
			Score: func(c Comparison) (float64, bool) {
				if c.exactLast() {
					return math.Max(75, c.Full), true
				}
				return 0, false
			},
		},
		{
			Name: StrategyFullName,
			Score: func(c Comparison) (float64, bool) {
				return c.Full, c.Full >= 90
			},
		},
		{
			Name: StrategyWeightedLastFirst,
			Score: func(c Comparison) (float64, bool) {
				if c.Last >= 80 && c.First >= 60 {
					return 0.7*c.Last + 0.3*c.First, true
				}
				return 0, false
			},
		},
		{
			Name: StrategyFullNameFallback,
			Score: func(c Comparison) (float64, bool) {
				return c.Full, true
			},
		},
	}
}

// =============================================================================
// MATCHER
// =============================================================================

// Candidate is a scored match.
type Candidate struct {
	Name       string
	Confidence float64
	Strategy   string
}

// MatchResult is the outcome of FindMatches.
type MatchResult struct {
	ExactMatch      *string
	FuzzyMatches    []Candidate
	Confidence      float64
	ShouldAutoMatch bool
}

// Matcher resolves a name against candidates.
type Matcher struct {
	mapper     *Mapper
	strategies []Strategy
	autoMatch  float64
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithAutoMatchConfidence sets the minimum confidence for auto-resolution.
func WithAutoMatchConfidence(c float64) MatcherOption {
	return func(m *Matcher) { m.autoMatch = c }
}

// DefaultThreshold is the FindMatches threshold used when none is given.
const DefaultThreshold = 70

// NewMatcher creates a matcher over an exact-mapping table.
func NewMatcher(mapper *Mapper, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		mapper:     mapper,
		strategies: DefaultStrategies(),
		autoMatch:  95,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Score runs the strategy chain for a single pair.
func (m *Matcher) Score(target, candidate string) Candidate {
	cmp := compare(target, candidate)
	for _, s := range m.strategies {
		if conf, ok := s.Score(cmp); ok {
			return Candidate{Name: candidate, Confidence: round2(conf), Strategy: s.Name}
		}
	}
	return Candidate{Name: candidate}
}

// FindMatches resolves target against candidates.
//
// An exact-mapping hit returns immediately with confidence 100. Otherwise
// every candidate is scored, those at or above threshold are kept sorted by
// confidence (ties keep candidate order), and ShouldAutoMatch is set only
// when exactly one candidate cleared the threshold at the auto-match
// confidence or better.
func (m *Matcher) FindMatches(target string, candidates []string, threshold float64) MatchResult {
	if mapped, ok := m.mapper.Lookup(target); ok {
		return MatchResult{
			ExactMatch:      &mapped,
			Confidence:      100,
			ShouldAutoMatch: true,
		}
	}
	if Canonicalize(target) == "" {
		return MatchResult{}
	}

	seen := make(map[string]bool, len(candidates))
	var kept []Candidate
	for _, name := range candidates {
		key := Canonicalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		c := m.Score(target, name)
		if c.Confidence >= threshold {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	result := MatchResult{FuzzyMatches: kept}
	if len(kept) > 0 {
		result.Confidence = kept[0].Confidence
		result.ShouldAutoMatch = len(kept) == 1 && kept[0].Confidence >= m.autoMatch
	}
	return result
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
