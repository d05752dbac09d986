package decision

import (
	"testing"

	"github.com/abhisek/atrisk/internal/classifier"
)

func TestDecide_Bands(t *testing.T) {
	above := classifier.Output{Label: classifier.AboveThreshold, Probability: classifier.Prob(0.62)}
	below := classifier.Output{Label: classifier.BelowThreshold, Probability: classifier.Prob(0.81)}

	tests := []struct {
		name       string
		score      int
		out        classifier.Output
		outcome    Outcome
		provenance Provenance
	}{
		{"15 overrides below", 15, below, Pass, HeuristicOverride},
		{"10 overrides below", 10, below, Pass, HeuristicOverride},
		{"9 follows below", 9, below, AtRisk, Model},
		{"9 follows above", 9, above, Pass, Model},
		{"5 follows above", 5, above, Pass, Model},
		{"4 overrides above", 4, above, AtRisk, HeuristicOverride},
		{"0 overrides above", 0, above, AtRisk, HeuristicOverride},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decide(tt.score, tt.out)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if v.Outcome != tt.outcome || v.Provenance != tt.provenance {
				t.Errorf("got %s/%s, want %s/%s", v.Outcome, v.Provenance, tt.outcome, tt.provenance)
			}
			if v.Score != tt.score {
				t.Errorf("score = %d", v.Score)
			}
			if tt.provenance == HeuristicOverride && v.Probability != nil {
				t.Error("override verdict should carry no probability")
			}
		})
	}
}

func TestDecide_ProbabilityCarriedUnchanged(t *testing.T) {
	p := 0.5731
	v, err := Decide(7, classifier.Output{Label: classifier.BelowThreshold, Probability: &p})
	if err != nil {
		t.Fatal(err)
	}
	if v.Probability == nil || *v.Probability != p {
		t.Fatalf("probability = %v, want %v", v.Probability, p)
	}
	p = 0.1
	if *v.Probability != 0.5731 {
		t.Error("verdict should not alias the classifier output")
	}
}

func TestDecide_NoProbability(t *testing.T) {
	v, err := Decide(6, classifier.Output{Label: classifier.AboveThreshold})
	if err != nil {
		t.Fatal(err)
	}
	if v.Outcome != Pass || v.Probability != nil {
		t.Errorf("got %+v", v)
	}
}

func TestDecide_UnknownLabel(t *testing.T) {
	if _, err := Decide(7, classifier.Output{Label: "Maybe"}); err == nil {
		t.Error("expected error for unknown label in model band")
	}
	// Inside a guard band the label is not consulted.
	if _, err := Decide(12, classifier.Output{Label: "Maybe"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEngine_CustomRules(t *testing.T) {
	e := NewEngine(ScoreAtLeast{Min: 8}, FollowModel{})
	v, err := e.Decide(8, classifier.Output{Label: classifier.BelowThreshold})
	if err != nil {
		t.Fatal(err)
	}
	if v.Outcome != Pass || v.Rule != "score>=8" {
		t.Errorf("got %+v", v)
	}

	e = NewEngine(ScoreAtMost{Max: 2})
	if _, err := e.Decide(5, classifier.Output{}); err == nil {
		t.Error("expected error when no rule applies")
	}
}
