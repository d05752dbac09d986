package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/atrisk/internal/encoder"
	"github.com/abhisek/atrisk/internal/features"
)

func defaultEncoder(t *testing.T) *encoder.Encoder {
	t.Helper()
	s := features.DefaultSchema()
	e, err := encoder.New(s, encoder.DefaultReference(s))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func encodeAnchor(t *testing.T, e *encoder.Encoder, i int) encoder.Vector {
	t.Helper()
	v, err := e.Encode(encoder.ReferenceRecords()[i])
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func TestParseVariant(t *testing.T) {
	tests := map[string]Variant{
		"random-forest":       VariantForest,
		"RF":                  VariantForest,
		" lr ":                VariantLogistic,
		"logistic-regression": VariantLogistic,
	}
	for in, want := range tests {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "Random Forest", "forest", "logistic"} {
		if _, err := ParseVariant(bad); err == nil {
			t.Errorf("ParseVariant(%q) should fail", bad)
		}
	}
}

func TestLoadBuiltin_Logistic(t *testing.T) {
	e := defaultEncoder(t)
	c, err := LoadBuiltin(VariantLogistic, e.Columns())
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}

	out, err := c.Predict(encodeAnchor(t, e, 1))
	if err != nil {
		t.Fatal(err)
	}
	if out.Label != AboveThreshold {
		t.Errorf("high anchor label = %s", out.Label)
	}
	if out.Probability == nil || math.Abs(*out.Probability-sigmoid(4.6)) > 1e-9 {
		t.Errorf("high anchor probability = %v, want %v", out.Probability, sigmoid(4.6))
	}

	out, err = c.Predict(encodeAnchor(t, e, 0))
	if err != nil {
		t.Fatal(err)
	}
	if out.Label != BelowThreshold {
		t.Errorf("low anchor label = %s", out.Label)
	}
	if math.Abs(*out.Probability-sigmoid(1.9)) > 1e-9 {
		t.Errorf("low anchor probability = %v, want %v", *out.Probability, sigmoid(1.9))
	}
}

func TestLoadBuiltin_Forest(t *testing.T) {
	e := defaultEncoder(t)
	c, err := LoadBuiltin(VariantForest, e.Columns())
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	out, _ := c.Predict(encodeAnchor(t, e, 1))
	if out.Label != AboveThreshold || math.Abs(*out.Probability-0.75) > 1e-9 {
		t.Errorf("high anchor = %s %v, want Above 0.75", out.Label, *out.Probability)
	}
	out, _ = c.Predict(encodeAnchor(t, e, 0))
	if out.Label != BelowThreshold || math.Abs(*out.Probability-0.75) > 1e-9 {
		t.Errorf("low anchor = %s %v, want Below 0.75", out.Label, *out.Probability)
	}
}

func TestProbabilityInUnitInterval(t *testing.T) {
	e := defaultEncoder(t)
	set, err := Load(e.Columns(), nil)
	if err != nil {
		t.Fatal(err)
	}
	r := encoder.ReferenceRecords()[0]
	for h := 1; h <= 50; h += 7 {
		for a := 50; a <= 100; a += 10 {
			r.HoursStudied, r.AttendancePct = h, a
			v, _ := e.Encode(r)
			for _, variant := range set.Variants() {
				out, err := set.Predict(variant, v)
				if err != nil {
					t.Fatal(err)
				}
				if p := *out.Probability; p < 0.5 || p > 1 {
					t.Errorf("%s: probability of predicted class %v outside [0.5, 1]", variant, p)
				}
			}
		}
	}
}

func TestLoad_ColumnMismatch(t *testing.T) {
	cols := defaultEncoder(t).Columns()
	cols[0], cols[1] = cols[1], cols[0]
	_, err := LoadBuiltin(VariantLogistic, cols)
	if !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("expected ErrColumnMismatch, got %v", err)
	}
	var ae *ArtifactError
	if !errors.As(err, &ae) {
		t.Errorf("expected ArtifactError wrapper, got %T", err)
	}
}

func TestParseArtifact_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"missing params": `{"variant":"random-forest","version":"1","columns":["a"],"classes":["Above Threshold","Below Threshold"]}`,
		"bad variant":    `{"variant":"svm","version":"1","columns":["a"],"classes":["Above Threshold","Below Threshold"],"params":{}}`,
		"one class":      `{"variant":"random-forest","version":"1","columns":["a"],"classes":["Above Threshold"],"params":{}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseArtifact(strings.NewReader(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_Override(t *testing.T) {
	doc := `{
	  "variant": "logistic-regression",
	  "version": "test",
	  "columns": ["a", "b"],
	  "classes": ["Below Threshold", "Above Threshold"],
	  "params": {"coefficients": [1, -1], "intercept": 0}
	}`
	path := filepath.Join(t.TempDir(), "lr.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path, []string{"a", "b"})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	out, _ := c.Predict(encoder.NewVector([]float64{0, 2}))
	if out.Label != BelowThreshold || math.Abs(*out.Probability-(1-sigmoid(-2))) > 1e-9 {
		t.Errorf("got %s %v", out.Label, *out.Probability)
	}
	out, _ = c.Predict(encoder.NewVector([]float64{1, 1}))
	if out.Label != BelowThreshold || *out.Probability != 0.5 {
		t.Errorf("zero margin should resolve to the first class, got %s %v", out.Label, *out.Probability)
	}
}

func TestLogistic_ZeroMarginGoesToFirstClass(t *testing.T) {
	m, err := NewLogistic(LogisticParams{Coefficients: make([]float64, 3)},
		[2]Label{BelowThreshold, AboveThreshold}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, vals := range [][]float64{{0, 0, 0}, {5, -2, 100}} {
		out, err := m.Predict(encoder.NewVector(vals))
		if err != nil {
			t.Fatal(err)
		}
		if out.Label != BelowThreshold || *out.Probability != 0.5 {
			t.Errorf("%v: got %s %v, want %s 0.5", vals, out.Label, *out.Probability, BelowThreshold)
		}
	}
}

func TestFingerprint(t *testing.T) {
	e := defaultEncoder(t)
	a, err := Load(e.Columns(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(e.Columns(), nil)
	if err != nil {
		t.Fatal(err)
	}
	fa, err := a.Fingerprint(VariantForest)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := b.Fingerprint(VariantForest)
	if fa != fb {
		t.Errorf("builtin fingerprints differ across loads: %q vs %q", fa, fb)
	}
	fl, _ := a.Fingerprint(VariantLogistic)
	if fa == fl {
		t.Error("variants share a fingerprint")
	}
	if !strings.HasPrefix(fa, "builtin:") {
		t.Errorf("fingerprint %q does not name its source", fa)
	}

	m1 := NewMock(VariantForest, Output{Label: AboveThreshold}, nil)
	m2 := NewMock(VariantForest, Output{Label: AboveThreshold}, nil)
	if m1.Fingerprint() == m2.Fingerprint() {
		t.Error("distinct mocks share a fingerprint")
	}

	set, _ := NewSet(m1)
	if _, err := set.Fingerprint(VariantLogistic); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestFingerprint_ArtifactContent(t *testing.T) {
	doc := func(intercept string) string {
		return `{"variant":"logistic-regression","version":"v1","columns":["a"],
		  "classes":["Below Threshold","Above Threshold"],
		  "params":{"coefficients":[1],"intercept":` + intercept + `}}`
	}
	path := filepath.Join(t.TempDir(), "lr.json")
	fingerprint := func(body string) string {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		c, err := LoadFile(path, []string{"a"})
		if err != nil {
			t.Fatal(err)
		}
		return c.(Fingerprinter).Fingerprint()
	}
	if fingerprint(doc("0")) == fingerprint(doc("1")) {
		t.Error("retrained artifact with the same version kept its fingerprint")
	}
}

func TestLoadFile_UnknownParam(t *testing.T) {
	doc := `{"variant":"logistic-regression","version":"x","columns":["a"],
	  "classes":["Below Threshold","Above Threshold"],
	  "params":{"coefficients":[1],"intercept":0,"penalty":"l2"}}`
	path := filepath.Join(t.TempDir(), "lr.json")
	os.WriteFile(path, []byte(doc), 0o644)
	if _, err := LoadFile(path, []string{"a"}); err == nil {
		t.Error("unknown params key should be rejected")
	}
}

func TestNewForest_Rejects(t *testing.T) {
	classes := [2]Label{BelowThreshold, AboveThreshold}
	tests := map[string]ForestParams{
		"no trees":       {},
		"backward child": {Trees: []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, {Value: []float64{1, 0}}}}}},
		"feature range":  {Trees: []Tree{{Nodes: []Node{{Feature: 5, Left: 1, Right: 2}, {Value: []float64{1, 0}}, {Value: []float64{0, 1}}}}}},
		"leaf width":     {Trees: []Tree{{Nodes: []Node{{Value: []float64{1, 0, 0}}}}}},
		"negative leaf":  {Trees: []Tree{{Nodes: []Node{{Value: []float64{-1, 2}}}}}},
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewForest(p, classes, 2); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestForest_TieGoesToFirstClass(t *testing.T) {
	f, err := NewForest(ForestParams{Trees: []Tree{{Nodes: []Node{{Value: []float64{2, 2}}}}}},
		[2]Label{BelowThreshold, AboveThreshold}, 1)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := f.Predict(encoder.NewVector([]float64{0}))
	if out.Label != BelowThreshold || *out.Probability != 0.5 {
		t.Errorf("got %s %v", out.Label, *out.Probability)
	}
}

func TestPredict_WrongWidth(t *testing.T) {
	e := defaultEncoder(t)
	set, err := Load(e.Columns(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = set.Predict(VariantForest, encoder.NewVector([]float64{1, 2, 3}))
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Variant != VariantForest {
		t.Errorf("expected UnavailableError for forest, got %v", err)
	}
}

func TestSet(t *testing.T) {
	m := NewMock(VariantLogistic, Output{Label: AboveThreshold}, nil)
	if _, err := NewSet(m, NewMock(VariantLogistic, Output{}, nil)); err == nil {
		t.Error("duplicate variants should be rejected")
	}
	set, err := NewSet(m)
	if err != nil {
		t.Fatal(err)
	}
	_, err = set.Predict(VariantForest, encoder.NewVector(nil))
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}

	boom := errors.New("boom")
	set, _ = NewSet(NewMock(VariantForest, Output{}, boom))
	_, err = set.Predict(VariantForest, encoder.NewVector(nil))
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
