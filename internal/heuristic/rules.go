package heuristic

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/features"
)

// Rule is one threshold predicate of the readiness score.
type Rule struct {
	Name   string
	Field  string
	Points int
	match  func(features.Record) bool
}

// Match reports whether the predicate holds for r.
func (r Rule) Match(rec features.Record) bool { return r.match(rec) }

// AtLeast awards points when a numeric field is >= threshold. The threshold
// must lie inside the field's bounds, otherwise the rule could never fire
// (or always fire) and is almost certainly a typo.
func AtLeast(schema *features.Schema, field string, threshold, points int) (Rule, error) {
	f, ok := schema.Numeric(field)
	if !ok {
		return Rule{}, fmt.Errorf("rule %s>=%d: unknown numeric field", field, threshold)
	}
	if !f.Contains(threshold) {
		return Rule{}, fmt.Errorf("rule %s>=%d: threshold outside [%d, %d]", field, threshold, f.Min, f.Max)
	}
	return Rule{
		Name:   fmt.Sprintf("%s >= %d", field, threshold),
		Field:  field,
		Points: points,
		match: func(r features.Record) bool {
			v, _ := r.Numeric(field)
			return v >= threshold
		},
	}, nil
}

// Is awards points when a categorical field equals category, which must be
// part of the schema vocabulary.
func Is(schema *features.Schema, field, category string, points int) (Rule, error) {
	f, ok := schema.Categorical(field)
	if !ok {
		return Rule{}, fmt.Errorf("rule %s=%s: unknown categorical field", field, category)
	}
	if f.Index(category) < 0 {
		return Rule{}, fmt.Errorf("rule %s=%s: category not in vocabulary %v", field, category, f.Categories)
	}
	return Rule{
		Name:   fmt.Sprintf("%s = %s", field, category),
		Field:  field,
		Points: points,
		match: func(r features.Record) bool {
			v, _ := r.Categorical(field)
			return v == category
		},
	}, nil
}

// DefaultRules returns the eleven readiness predicates. Categorical rules
// target the highest category of each field as declared by the schema.
func DefaultRules(schema *features.Schema) ([]Rule, error) {
	type numeric struct {
		field     string
		threshold int
		points    int
	}
	type categorical struct {
		field  string
		points int
	}

	numerics := []numeric{
		{features.HoursStudied, 25, 2},
		{features.AttendancePct, 95, 2},
		{features.SleepHours, 8, 1},
		{features.PhysicalActivity, 5, 1},
		{features.PreviousScore, 85, 2},
		{features.TutoringSessions, 3, 1},
	}
	categoricals := []categorical{
		{features.ParentalInvolvement, 1},
		{features.MotivationLevel, 2},
		{features.PeerInfluence, 1},
		{features.InternetAccess, 1},
		{features.ExtracurricularActivities, 1},
	}

	rules := make([]Rule, 0, len(numerics)+len(categoricals))
	for _, n := range numerics {
		r, err := AtLeast(schema, n.field, n.threshold, n.points)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	for _, c := range categoricals {
		f, ok := schema.Categorical(c.field)
		if !ok {
			return nil, fmt.Errorf("rule on %s: unknown categorical field", c.field)
		}
		r, err := Is(schema, c.field, f.Highest(), c.points)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
