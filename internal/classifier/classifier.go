// Package classifier defines the opaque model capability consumed by the
// prediction pipeline and the two shipped model families.
package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/atrisk/internal/encoder"
)

// Label is the class predicted by a model.
type Label string

const (
	AboveThreshold Label = "Above Threshold"
	BelowThreshold Label = "Below Threshold"
)

// ParseLabel accepts the exact class names used in model artifacts.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case AboveThreshold, BelowThreshold:
		return Label(s), nil
	}
	return "", fmt.Errorf("unknown class label %q", s)
}

// Output is a model prediction. Probability, when present, is the
// probability the model assigns to Label.
type Output struct {
	Label       Label    `json:"label"`
	Probability *float64 `json:"probability,omitempty"`
}

// Prob is a helper for building an Output with a probability.
func Prob(p float64) *float64 { return &p }

// Classifier maps an encoded vector to a class. Implementations must be
// read-only after construction so they can be shared across goroutines.
type Classifier interface {
	Variant() Variant
	Predict(v encoder.Vector) (Output, error)
}

// Fingerprinter is implemented by classifiers that can identify the
// model they were built from. Two classifiers with equal fingerprints
// must predict identically.
type Fingerprinter interface {
	Fingerprint() string
}

// Variant selects one of the available model families.
type Variant string

const (
	VariantLogistic Variant = "logistic-regression"
	VariantForest   Variant = "random-forest"
)

// Variants returns every known variant in display order.
func Variants() []Variant {
	return []Variant{VariantForest, VariantLogistic}
}

// ParseVariant resolves an explicit discriminant. Short aliases "rf" and
// "lr" are accepted; display names and substrings are not.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VariantLogistic), "lr":
		return VariantLogistic, nil
	case string(VariantForest), "rf":
		return VariantForest, nil
	}
	return "", fmt.Errorf("unknown model %q (want %s or %s)", s, VariantForest, VariantLogistic)
}

// DisplayName returns a human-readable name.
func (v Variant) DisplayName() string {
	switch v {
	case VariantLogistic:
		return "Logistic Regression"
	case VariantForest:
		return "Random Forest"
	}
	return string(v)
}

// Set holds the loaded classifiers keyed by variant.
type Set struct {
	byVariant map[Variant]Classifier
}

// NewSet builds a Set. Registering two classifiers for the same variant is
// an error.
func NewSet(classifiers ...Classifier) (*Set, error) {
	s := &Set{byVariant: make(map[Variant]Classifier, len(classifiers))}
	for _, c := range classifiers {
		if _, dup := s.byVariant[c.Variant()]; dup {
			return nil, fmt.Errorf("duplicate classifier for %s", c.Variant())
		}
		s.byVariant[c.Variant()] = c
	}
	return s, nil
}

// Get returns the classifier for v, or an UnavailableError.
func (s *Set) Get(v Variant) (Classifier, error) {
	c, ok := s.byVariant[v]
	if !ok {
		return nil, &UnavailableError{Variant: v, Err: ErrNotLoaded}
	}
	return c, nil
}

// Predict runs the classifier for v. Any failure is reported as an
// UnavailableError; it is never retried.
func (s *Set) Predict(v Variant, vec encoder.Vector) (Output, error) {
	c, err := s.Get(v)
	if err != nil {
		return Output{}, err
	}
	out, err := c.Predict(vec)
	if err != nil {
		return Output{}, &UnavailableError{Variant: v, Err: err}
	}
	return out, nil
}

// Fingerprint identifies the classifier loaded for v. Classifiers that do
// not implement Fingerprinter are identified by instance, so their
// results are never shared with another Set.
func (s *Set) Fingerprint(v Variant) (string, error) {
	c, err := s.Get(v)
	if err != nil {
		return "", err
	}
	if f, ok := c.(Fingerprinter); ok {
		return f.Fingerprint(), nil
	}
	return fmt.Sprintf("%s:%T:%p", v, c, c), nil
}

// Variants returns the loaded variants, sorted.
func (s *Set) Variants() []Variant {
	out := make([]Variant, 0, len(s.byVariant))
	for v := range s.byVariant {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
