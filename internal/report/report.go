// Package report renders prediction results for the terminal, either
// styled with lipgloss or as plain text, and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/atrisk/internal/app"
	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/heuristic"
	"github.com/abhisek/atrisk/internal/recommend"
	"github.com/abhisek/atrisk/internal/ui/components"
	"github.com/abhisek/atrisk/internal/ui/theme"
)

const barWidth = 15

// Printer writes reports to w.
type Printer struct {
	w     io.Writer
	plain bool
}

// New creates a Printer. With plain set no escape sequences are written.
func New(w io.Writer, plain bool) *Printer {
	return &Printer{w: w, plain: plain}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

func (p *Printer) print(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *Printer) field(label, value string) string {
	if p.plain {
		return fmt.Sprintf("%-12s%s", label+":", value)
	}
	return theme.Label.Render(label) + value
}

// Prediction renders one result: verdict card, score breakdown,
// recommendations and the coaching note when present.
func (p *Printer) Prediction(res *app.Result) {
	o := res.Outcome
	v := o.Verdict

	var b strings.Builder
	b.WriteString(p.field("Outcome", p.verdictBadge(v.Outcome)) + "\n")
	b.WriteString(p.field("Decided by", decidedBy(v, o.MaxScore)) + "\n")

	model := fmt.Sprintf("%s: %s", o.Variant.DisplayName(), o.Model.Label)
	if o.Model.Probability != nil {
		model += fmt.Sprintf(" (%.1f%%)", *o.Model.Probability*100)
	}
	b.WriteString(p.field("Model", model) + "\n")
	b.WriteString(p.field("Score", components.NewScoreBar(o.Score, o.MaxScore, barWidth, p.plain).View()) + "\n")

	ref := res.RequestID
	if res.EventID > 0 {
		ref += fmt.Sprintf("  event #%d", res.EventID)
	}
	if res.Cached {
		ref += "  (cached)"
	}
	b.WriteString(p.field("Request", p.style(theme.Hint, ref)))

	if p.plain {
		p.print(b.String())
	} else {
		p.print(theme.Card.Render(b.String()))
	}

	p.print("")
	p.hits(o.Hits)
	p.print("")
	p.recommendations(o.Recommendations)

	if res.Note != nil {
		p.print("")
		p.print(p.style(theme.Title, "Coaching note"))
		p.print("  " + res.Note.Summary)
		for _, a := range res.Note.Actions {
			p.print("  - " + a)
		}
	} else if res.NoteError != "" {
		p.print("")
		p.print(p.style(theme.Hint, "Coaching note unavailable: "+res.NoteError))
	}
}

// Breakdown renders a heuristic score with its rule hits.
func (p *Printer) Breakdown(score, maxScore int, hits []heuristic.Hit) {
	p.print(p.field("Score", components.NewScoreBar(score, maxScore, barWidth, p.plain).View()))
	p.print("")
	p.hits(hits)
}

func (p *Printer) hits(hits []heuristic.Hit) {
	p.print(p.style(theme.Title, "Indicators"))
	for _, h := range hits {
		mark, st := "x", theme.Missed
		if h.Matched {
			mark, st = "+", theme.Matched
		}
		p.print(fmt.Sprintf("  %s %-36s %d", p.style(st, mark), h.Rule, h.Points))
	}
}

func (p *Printer) recommendations(recs []recommend.Recommendation) {
	title := "Recommendations"
	if len(recs) > 0 && recs[0].Urgent {
		title += " " + p.style(theme.Urgent, "(urgent)")
	}
	p.print(p.style(theme.Title, title))
	if len(recs) == 0 {
		p.print(p.style(theme.Hint, "  None. Keep it up."))
		return
	}
	for i, r := range recs {
		p.print(fmt.Sprintf("  %d. %s", i+1, r.Message))
	}
}

func (p *Printer) verdictBadge(o decision.Outcome) string {
	if o == decision.Pass {
		return p.style(theme.Pass, string(o))
	}
	return p.style(theme.AtRisk, string(o))
}

func decidedBy(v decision.Verdict, maxScore int) string {
	if v.Provenance == decision.HeuristicOverride {
		return fmt.Sprintf("indicator score %d/%d (%s)", v.Score, maxScore, v.Rule)
	}
	if v.Probability != nil {
		return fmt.Sprintf("model (%.1f%% confidence)", *v.Probability*100)
	}
	return "model"
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
