// Package recommend turns weak indicators into intervention advice.
package recommend

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/features"
)

// Code identifies a recommendation independently of its wording.
type Code string

const (
	IncreaseStudy     Code = "increase-study-hours"
	ImproveAttendance Code = "improve-attendance"
	ImproveSleep      Code = "improve-sleep"
	IncreaseActivity  Code = "increase-physical-activity"
	AddTutoring       Code = "add-tutoring"
	MotivationSupport Code = "motivation-counselling"
	EngageParents     Code = "engage-parents"
)

// Recommendation is one piece of advice. Urgent is set when the verdict for
// the record is AtRisk.
type Recommendation struct {
	Code    Code   `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Urgent  bool   `json:"urgent"`
}

// Trigger is one recommendation rule.
type Trigger struct {
	Code    Code
	Field   string
	Message string
	when    func(features.Record) bool
}

// Below fires when a numeric field is strictly below limit.
func Below(field string, limit int, code Code, message string) Trigger {
	return Trigger{
		Code: code, Field: field, Message: message,
		when: func(r features.Record) bool {
			v, ok := r.Numeric(field)
			return ok && v < limit
		},
	}
}

// Equals fires when a categorical field equals category.
func Equals(field, category string, code Code, message string) Trigger {
	return Trigger{
		Code: code, Field: field, Message: message,
		when: func(r features.Record) bool {
			v, ok := r.Categorical(field)
			return ok && v == category
		},
	}
}

// DefaultTriggers returns the seven triggers in priority order. The
// categorical triggers fire on the lowest category the schema declares.
func DefaultTriggers(schema *features.Schema) ([]Trigger, error) {
	for _, name := range []string{features.MotivationLevel, features.ParentalInvolvement} {
		if _, ok := schema.Categorical(name); !ok {
			return nil, fmt.Errorf("recommend: schema has no %s field", name)
		}
	}
	return []Trigger{
		Below(features.HoursStudied, 20, IncreaseStudy,
			"Increase weekly study time to at least 20 hours."),
		Below(features.AttendancePct, 85, ImproveAttendance,
			"Improve class attendance to 85% or more."),
		Below(features.SleepHours, 7, ImproveSleep,
			"Aim for at least 7 hours of sleep per night."),
		Below(features.PhysicalActivity, 3, IncreaseActivity,
			"Exercise at least 3 times per week."),
		Below(features.TutoringSessions, 2, AddTutoring,
			"Add tutoring sessions, at least 2 per month."),
		Equals(features.MotivationLevel, schema.MustCategorical(features.MotivationLevel).Lowest(), MotivationSupport,
			"Arrange motivation counselling."),
		Equals(features.ParentalInvolvement, schema.MustCategorical(features.ParentalInvolvement).Lowest(), EngageParents,
			"Involve parents or guardians in the study plan."),
	}, nil
}

// Generator evaluates triggers in order. It holds no mutable state.
type Generator struct {
	triggers []Trigger
}

// NewGenerator builds a generator over the default triggers for schema.
func NewGenerator(schema *features.Schema) (*Generator, error) {
	ts, err := DefaultTriggers(schema)
	if err != nil {
		return nil, err
	}
	return &Generator{triggers: ts}, nil
}

// NewGeneratorWithTriggers builds a generator over explicit triggers.
func NewGeneratorWithTriggers(ts []Trigger) *Generator {
	return &Generator{triggers: append([]Trigger(nil), ts...)}
}

// Generate returns every recommendation whose trigger fires, in priority
// order. A Pass verdict suppresses nothing.
func (g *Generator) Generate(r features.Record, v decision.Verdict) []Recommendation {
	out := []Recommendation{}
	urgent := v.Outcome == decision.AtRisk
	for _, t := range g.triggers {
		if t.when(r) {
			out = append(out, Recommendation{
				Code:    t.Code,
				Field:   t.Field,
				Message: t.Message,
				Urgent:  urgent,
			})
		}
	}
	return out
}
