// Package decision blends the heuristic score with the classifier output
// into the final verdict.
package decision

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/classifier"
)

// Outcome is the final binary verdict.
type Outcome string

const (
	Pass   Outcome = "Pass"
	AtRisk Outcome = "AtRisk"
)

// Provenance records which source produced a verdict.
type Provenance string

const (
	HeuristicOverride Provenance = "heuristic-override"
	Model             Provenance = "model"
)

// Verdict is the decision for one record. Probability is only set when the
// model decided and reported one.
type Verdict struct {
	Outcome     Outcome    `json:"outcome"`
	Provenance  Provenance `json:"provenance"`
	Probability *float64   `json:"probability,omitempty"`
	Score       int        `json:"score"`
	Rule        string     `json:"rule"`
}

// Rule is one step of the decision precedence. It returns ok=false when it
// does not apply.
type Rule interface {
	Name() string
	Apply(score int, out classifier.Output) (v Verdict, ok bool, err error)
}

// ScoreAtLeast decides Pass when score >= Min.
type ScoreAtLeast struct{ Min int }

func (r ScoreAtLeast) Name() string { return fmt.Sprintf("score>=%d", r.Min) }

func (r ScoreAtLeast) Apply(score int, _ classifier.Output) (Verdict, bool, error) {
	if score < r.Min {
		return Verdict{}, false, nil
	}
	return Verdict{Outcome: Pass, Provenance: HeuristicOverride}, true, nil
}

// ScoreAtMost decides AtRisk when score <= Max.
type ScoreAtMost struct{ Max int }

func (r ScoreAtMost) Name() string { return fmt.Sprintf("score<=%d", r.Max) }

func (r ScoreAtMost) Apply(score int, _ classifier.Output) (Verdict, bool, error) {
	if score > r.Max {
		return Verdict{}, false, nil
	}
	return Verdict{Outcome: AtRisk, Provenance: HeuristicOverride}, true, nil
}

// FollowModel maps the classifier label onto the verdict. It always applies.
type FollowModel struct{}

func (FollowModel) Name() string { return "model" }

func (FollowModel) Apply(_ int, out classifier.Output) (Verdict, bool, error) {
	var o Outcome
	switch out.Label {
	case classifier.AboveThreshold:
		o = Pass
	case classifier.BelowThreshold:
		o = AtRisk
	default:
		return Verdict{}, false, fmt.Errorf("unknown classifier label %q", out.Label)
	}
	v := Verdict{Outcome: o, Provenance: Model}
	if out.Probability != nil {
		p := *out.Probability
		v.Probability = &p
	}
	return v, true, nil
}

// DefaultRules returns the decision precedence: the high band, the low band,
// then the model.
func DefaultRules() []Rule {
	return []Rule{
		ScoreAtLeast{Min: 10},
		ScoreAtMost{Max: 4},
		FollowModel{},
	}
}

// Engine evaluates rules in order; the first that applies wins.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over rules. A nil or empty list uses
// DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Decide applies the precedence to a score and classifier output.
func (e *Engine) Decide(score int, out classifier.Output) (Verdict, error) {
	for _, r := range e.rules {
		v, ok, err := r.Apply(score, out)
		if err != nil {
			return Verdict{}, fmt.Errorf("decision rule %s: %w", r.Name(), err)
		}
		if ok {
			v.Score = score
			v.Rule = r.Name()
			return v, nil
		}
	}
	return Verdict{}, fmt.Errorf("no decision rule applied to score %d", score)
}

// Decide runs the default precedence.
func Decide(score int, out classifier.Output) (Verdict, error) {
	return defaultEngine.Decide(score, out)
}

var defaultEngine = NewEngine()
