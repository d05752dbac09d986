package predictor

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/encoder"
	"github.com/abhisek/atrisk/internal/features"
)

func scenarioA() features.Record {
	return features.Record{
		HoursStudied: 30, AttendancePct: 100, SleepHours: 9,
		PhysicalActivity: 6, PreviousScore: 95, TutoringSessions: 4,
		ParentalInvolvement: "High", MotivationLevel: "High",
		PeerInfluence: "Positive", InternetAccess: "Yes",
		ExtracurricularActivities: "Yes",
	}
}

func scenarioB() features.Record {
	return features.Record{
		HoursStudied: 1, AttendancePct: 50, SleepHours: 4,
		PhysicalActivity: 0, PreviousScore: 50, TutoringSessions: 0,
		ParentalInvolvement: "Low", MotivationLevel: "Low",
		PeerInfluence: "Negative", InternetAccess: "No",
		ExtracurricularActivities: "No",
	}
}

// scenarioC scores 7: hours 2, attendance 2, sleep 1, motivation 2.
func scenarioC() features.Record {
	return features.Record{
		HoursStudied: 25, AttendancePct: 95, SleepHours: 8,
		PhysicalActivity: 3, PreviousScore: 70, TutoringSessions: 2,
		ParentalInvolvement: "Medium", MotivationLevel: "High",
		PeerInfluence: "Neutral", InternetAccess: "No",
		ExtracurricularActivities: "No",
	}
}

func newWithMock(t *testing.T, m *classifier.Mock) *Service {
	t.Helper()
	schema := features.DefaultSchema()
	enc, err := encoder.New(schema, encoder.DefaultReference(schema))
	if err != nil {
		t.Fatal(err)
	}
	set, err := classifier.NewSet(m)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := New(Deps{Schema: schema, Encoder: enc, Classifiers: set})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestScenarioA_HeuristicPass(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.BelowThreshold, Probability: classifier.Prob(0.9)}, nil)
	out, err := newWithMock(t, m).PredictOutcome(scenarioA(), classifier.VariantForest)
	if err != nil {
		t.Fatal(err)
	}
	if out.Score != 15 {
		t.Errorf("score = %d, want 15", out.Score)
	}
	if out.Verdict.Outcome != decision.Pass || out.Verdict.Provenance != decision.HeuristicOverride {
		t.Errorf("verdict = %+v", out.Verdict)
	}
	if len(out.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want none", out.Recommendations)
	}
	if m.CallCount() != 1 {
		t.Errorf("classifier calls = %d, want 1", m.CallCount())
	}
}

func TestScenarioB_HeuristicAtRisk(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.AboveThreshold, Probability: classifier.Prob(0.9)}, nil)
	out, err := newWithMock(t, m).PredictOutcome(scenarioB(), classifier.VariantForest)
	if err != nil {
		t.Fatal(err)
	}
	if out.Score != 0 {
		t.Errorf("score = %d, want 0", out.Score)
	}
	if out.Verdict.Outcome != decision.AtRisk || out.Verdict.Provenance != decision.HeuristicOverride {
		t.Errorf("verdict = %+v", out.Verdict)
	}
	if len(out.Recommendations) != 7 {
		t.Errorf("recommendations = %d, want 7", len(out.Recommendations))
	}
}

func TestScenarioC_ModelDecides(t *testing.T) {
	for _, label := range []classifier.Label{classifier.AboveThreshold, classifier.BelowThreshold} {
		p := 0.6734
		m := classifier.NewMock(classifier.VariantLogistic, classifier.Output{Label: label, Probability: &p}, nil)
		out, err := newWithMock(t, m).PredictOutcome(scenarioC(), classifier.VariantLogistic)
		if err != nil {
			t.Fatal(err)
		}
		if out.Score != 7 {
			t.Fatalf("score = %d, want 7", out.Score)
		}
		want := decision.Pass
		if label == classifier.BelowThreshold {
			want = decision.AtRisk
		}
		if out.Verdict.Outcome != want || out.Verdict.Provenance != decision.Model {
			t.Errorf("%s: verdict = %+v", label, out.Verdict)
		}
		if out.Verdict.Probability == nil || *out.Verdict.Probability != p {
			t.Errorf("%s: probability = %v", label, out.Verdict.Probability)
		}
	}
}

func TestClassifierFailurePropagatesInsideBands(t *testing.T) {
	boom := errors.New("model file corrupt")
	for _, r := range []features.Record{scenarioA(), scenarioB(), scenarioC()} {
		m := classifier.NewMock(classifier.VariantForest, classifier.Output{}, boom)
		_, err := newWithMock(t, m).PredictOutcome(r, classifier.VariantForest)
		var ue *classifier.UnavailableError
		if !errors.As(err, &ue) {
			t.Fatalf("expected UnavailableError, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("cause lost: %v", err)
		}
	}
}

func TestUnloadedVariant(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.AboveThreshold}, nil)
	_, err := newWithMock(t, m).PredictOutcome(scenarioC(), classifier.VariantLogistic)
	if !errors.Is(err, classifier.ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestValidationStopsBeforeClassifier(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.AboveThreshold}, nil)
	r := scenarioC()
	r.SleepHours = 11
	_, err := newWithMock(t, m).PredictOutcome(r, classifier.VariantForest)
	var ve *features.ValidationError
	if !errors.As(err, &ve) || ve.Field != features.SleepHours {
		t.Fatalf("expected ValidationError on sleep_hours, got %v", err)
	}
	if m.CallCount() != 0 {
		t.Error("classifier should not be called for invalid input")
	}
}

func TestVectorPassedToClassifier(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.AboveThreshold}, nil)
	svc := newWithMock(t, m)
	r := scenarioC()
	r.MotivationLevel = "Ambivalent"
	if _, err := svc.PredictOutcome(r, classifier.VariantForest); err != nil {
		t.Fatal(err)
	}
	v := m.Calls[0]
	if v.Len() != 14 {
		t.Fatalf("vector length = %d", v.Len())
	}
	if v.At(2) != 0 || v.At(3) != 0 {
		t.Error("unknown category should encode to zeros")
	}
}

func TestIdempotent(t *testing.T) {
	svc, err := NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range svc.Variants() {
		a, err := svc.PredictOutcome(scenarioC(), v)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := svc.PredictOutcome(scenarioC(), v)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: outcomes differ", v)
		}
	}
}

func TestConcurrentUse(t *testing.T) {
	svc, err := NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := svc.PredictOutcome(scenarioC(), classifier.VariantForest)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.PredictOutcome(scenarioC(), classifier.VariantForest)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestMonotonicInHeuristicBands(t *testing.T) {
	svc, err := NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	r := scenarioC()
	r.PreviousScore = 85
	r.TutoringSessions = 3
	out, err := svc.PredictOutcome(r, classifier.VariantLogistic)
	if err != nil {
		t.Fatal(err)
	}
	if out.Score != 10 || out.Verdict.Outcome != decision.Pass {
		t.Fatalf("score %d verdict %s", out.Score, out.Verdict.Outcome)
	}
	// Raising any numeric field cannot drop a heuristic Pass.
	r.HoursStudied = 50
	r.AttendancePct = 100
	out, _ = svc.PredictOutcome(r, classifier.VariantLogistic)
	if out.Verdict.Outcome != decision.Pass {
		t.Error("verdict regressed after improving inputs")
	}
}

func TestFingerprint_TracksReference(t *testing.T) {
	m := classifier.NewMock(classifier.VariantForest, classifier.Output{Label: classifier.AboveThreshold}, nil)
	schema := features.DefaultSchema()
	build := func(ref *encoder.Reference) *Service {
		t.Helper()
		enc, err := encoder.New(schema, ref)
		if err != nil {
			t.Fatal(err)
		}
		set, err := classifier.NewSet(m)
		if err != nil {
			t.Fatal(err)
		}
		svc, err := New(Deps{Schema: schema, Encoder: enc, Classifiers: set})
		if err != nil {
			t.Fatal(err)
		}
		return svc
	}

	stats := encoder.DefaultReference(schema).Stats()
	a, _ := build(encoder.DefaultReference(schema)).Fingerprint(classifier.VariantForest)
	b, _ := build(encoder.DefaultReference(schema)).Fingerprint(classifier.VariantForest)
	if a != b {
		t.Errorf("equal inputs gave fingerprints %q and %q", a, b)
	}

	st := stats["hours_studied"]
	st.Mean++
	stats["hours_studied"] = st
	ref, err := encoder.NewReference(schema, stats)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := build(ref).Fingerprint(classifier.VariantForest)
	if a == c {
		t.Error("fingerprint ignores reference statistics")
	}

	if _, err := build(ref).Fingerprint(classifier.VariantLogistic); !errors.Is(err, classifier.ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}
