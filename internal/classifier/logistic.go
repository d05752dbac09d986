package classifier

import (
	"fmt"
	"math"

	"github.com/abhisek/atrisk/internal/encoder"
)

// LogisticParams are the fitted parameters of a binary logistic regression.
type LogisticParams struct {
	Coefficients []float64 `mapstructure:"coefficients"`
	Intercept    float64   `mapstructure:"intercept"`
}

// Logistic is a binary logistic regression. The sigmoid output is the
// probability of classes[1].
type Logistic struct {
	coef      []float64
	intercept float64
	classes   [2]Label
}

// NewLogistic validates params against the expected vector width.
func NewLogistic(p LogisticParams, classes [2]Label, width int) (*Logistic, error) {
	if len(p.Coefficients) != width {
		return nil, fmt.Errorf("logistic regression: %d coefficients for %d columns", len(p.Coefficients), width)
	}
	for i, c := range p.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("logistic regression: coefficient %d is not finite", i)
		}
	}
	if classes[0] == classes[1] {
		return nil, fmt.Errorf("logistic regression: classes must differ")
	}
	return &Logistic{
		coef:      append([]float64(nil), p.Coefficients...),
		intercept: p.Intercept,
		classes:   classes,
	}, nil
}

func (m *Logistic) Variant() Variant { return VariantLogistic }

func (m *Logistic) Predict(v encoder.Vector) (Output, error) {
	if v.Len() != len(m.coef) {
		return Output{}, fmt.Errorf("vector has %d columns, model expects %d", v.Len(), len(m.coef))
	}
	z := m.intercept
	for i, c := range m.coef {
		z += c * v.At(i)
	}
	p := 1 / (1 + math.Exp(-z))

	// The decision function must be strictly positive for classes[1]; a
	// zero margin goes to classes[0].
	if z > 0 {
		return Output{Label: m.classes[1], Probability: Prob(p)}, nil
	}
	return Output{Label: m.classes[0], Probability: Prob(1 - p)}, nil
}
