// Package heuristic computes the hand-authored readiness score from raw
// (unencoded) feature values.
package heuristic

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/features"
)

// Hit records the outcome of one rule for one record.
type Hit struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Points  int    `json:"points"`
	Matched bool   `json:"matched"`
}

// Scorer sums rule points. It is pure and holds no mutable state.
type Scorer struct {
	rules []Rule
	max   int
}

// NewScorer builds a scorer over the default rules for schema.
func NewScorer(schema *features.Schema) (*Scorer, error) {
	rules, err := DefaultRules(schema)
	if err != nil {
		return nil, fmt.Errorf("build heuristic rules: %w", err)
	}
	return NewScorerWithRules(rules)
}

// NewScorerWithRules builds a scorer over an explicit rule set. Points must
// be positive so that the score stays monotonic in every predicate.
func NewScorerWithRules(rules []Rule) (*Scorer, error) {
	s := &Scorer{rules: append([]Rule(nil), rules...)}
	for _, r := range rules {
		if r.Points <= 0 {
			return nil, fmt.Errorf("rule %q: points must be positive, got %d", r.Name, r.Points)
		}
		s.max += r.Points
	}
	return s, nil
}

// Score returns the total points for r, in [0, MaxScore()].
func (s *Scorer) Score(r features.Record) int {
	total := 0
	for _, rule := range s.rules {
		if rule.Match(r) {
			total += rule.Points
		}
	}
	return total
}

// Explain evaluates every rule and reports each result in rule order.
func (s *Scorer) Explain(r features.Record) []Hit {
	hits := make([]Hit, len(s.rules))
	for i, rule := range s.rules {
		hits[i] = Hit{
			Rule:    rule.Name,
			Field:   rule.Field,
			Points:  rule.Points,
			Matched: rule.Match(r),
		}
	}
	return hits
}

// MaxScore is the score of a record that satisfies every rule.
func (s *Scorer) MaxScore() int { return s.max }

// Rules returns the rule set in evaluation order.
func (s *Scorer) Rules() []Rule { return append([]Rule(nil), s.rules...) }
