package coach

import (
	"fmt"
	"strings"

	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/predictor"
)

const systemPrompt = `You are an academic counsellor writing a brief note about one student.

Rules:
- You are given a predicted outcome, the indicators behind it and a list of recommendations.
- Do not change or contradict the predicted outcome.
- Every action must be consistent with the given recommendations. Do not invent new problem areas.
- Be specific and supportive. Avoid jargon and avoid mentioning models, scores or probabilities to the student.
- If the outcome is Pass and there are no recommendations, the actions list may be empty.`

// buildUserMessage renders the record and outcome for the prompt.
func buildUserMessage(schema *features.Schema, r features.Record, o *predictor.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Predicted outcome: %s\n", o.Verdict.Outcome)
	switch o.Verdict.Provenance {
	case decision.HeuristicOverride:
		fmt.Fprintf(&b, "Decided by: indicator score %d of %d\n", o.Score, o.MaxScore)
	default:
		fmt.Fprintf(&b, "Decided by: %s", o.Variant.DisplayName())
		if p := o.Verdict.Probability; p != nil {
			fmt.Fprintf(&b, " (confidence %.0f%%)", *p*100)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nIndicators:\n")
	for _, f := range schema.NumericFields() {
		v, _ := r.Numeric(f.Name)
		fmt.Fprintf(&b, "- %s: %d\n", f.Name, v)
	}
	for _, f := range schema.CategoricalFields() {
		v, _ := r.Categorical(f.Name)
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, v)
	}

	b.WriteString("\nIndicators below the healthy range:\n")
	missed := 0
	for _, h := range o.Hits {
		if !h.Matched {
			fmt.Fprintf(&b, "- %s\n", h.Rule)
			missed++
		}
	}
	if missed == 0 {
		b.WriteString("None\n")
	}

	b.WriteString("\nRecommendations:\n")
	if len(o.Recommendations) == 0 {
		b.WriteString("None")
	}
	for i, rec := range o.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
