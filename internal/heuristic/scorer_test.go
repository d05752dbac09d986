package heuristic

import (
	"testing"

	"github.com/abhisek/atrisk/internal/features"
)

func best() features.Record {
	return features.Record{
		HoursStudied: 30, AttendancePct: 100, SleepHours: 9,
		PhysicalActivity: 6, PreviousScore: 95, TutoringSessions: 4,
		ParentalInvolvement: "High", MotivationLevel: "High",
		PeerInfluence: "Positive", InternetAccess: "Yes",
		ExtracurricularActivities: "Yes",
	}
}

func worst() features.Record {
	return features.Record{
		HoursStudied: 1, AttendancePct: 50, SleepHours: 4,
		PhysicalActivity: 0, PreviousScore: 50, TutoringSessions: 0,
		ParentalInvolvement: "Low", MotivationLevel: "Low",
		PeerInfluence: "Negative", InternetAccess: "No",
		ExtracurricularActivities: "No",
	}
}

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(features.DefaultSchema())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestScore_Extremes(t *testing.T) {
	s := newScorer(t)
	if got := s.Score(best()); got != 15 {
		t.Errorf("best score = %d, want 15", got)
	}
	if got := s.Score(worst()); got != 0 {
		t.Errorf("worst score = %d, want 0", got)
	}
	if s.MaxScore() != 15 {
		t.Errorf("max = %d, want 15", s.MaxScore())
	}
}

func TestScore_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*features.Record)
		want   int
	}{
		{"hours at threshold", func(r *features.Record) { r.HoursStudied = 25 }, 2},
		{"hours below threshold", func(r *features.Record) { r.HoursStudied = 24 }, 0},
		{"attendance 95", func(r *features.Record) { r.AttendancePct = 95 }, 2},
		{"sleep 8", func(r *features.Record) { r.SleepHours = 8 }, 1},
		{"activity 5", func(r *features.Record) { r.PhysicalActivity = 5 }, 1},
		{"previous 85", func(r *features.Record) { r.PreviousScore = 85 }, 2},
		{"previous 84", func(r *features.Record) { r.PreviousScore = 84 }, 0},
		{"tutoring 3", func(r *features.Record) { r.TutoringSessions = 3 }, 1},
		{"parental high", func(r *features.Record) { r.ParentalInvolvement = "High" }, 1},
		{"parental medium", func(r *features.Record) { r.ParentalInvolvement = "Medium" }, 0},
		{"motivation high", func(r *features.Record) { r.MotivationLevel = "High" }, 2},
		{"peer positive", func(r *features.Record) { r.PeerInfluence = "Positive" }, 1},
		{"internet yes", func(r *features.Record) { r.InternetAccess = "Yes" }, 1},
		{"extracurricular yes", func(r *features.Record) { r.ExtracurricularActivities = "Yes" }, 1},
		{"case sensitive", func(r *features.Record) { r.MotivationLevel = "high" }, 0},
	}
	s := newScorer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := worst()
			tt.mutate(&r)
			if got := s.Score(r); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	s := newScorer(t)
	base := worst()
	prev := s.Score(base)
	for h := 1; h <= 50; h++ {
		base.HoursStudied = h
		got := s.Score(base)
		if got < prev {
			t.Fatalf("score decreased at hours=%d: %d < %d", h, got, prev)
		}
		prev = got
	}
}

func TestExplain(t *testing.T) {
	s := newScorer(t)
	hits := s.Explain(best())
	if len(hits) != 11 {
		t.Fatalf("hits = %d, want 11", len(hits))
	}
	total := 0
	for _, h := range hits {
		if !h.Matched {
			t.Errorf("rule %s should match best record", h.Rule)
		}
		total += h.Points
	}
	if total != 15 {
		t.Errorf("points sum = %d", total)
	}
	if hits[0].Field != features.HoursStudied {
		t.Errorf("first rule field = %s", hits[0].Field)
	}
}

func TestRuleConstructors_Reject(t *testing.T) {
	schema := features.DefaultSchema()
	if _, err := AtLeast(schema, features.HoursStudied, 60, 1); err == nil {
		t.Error("threshold outside bounds should fail")
	}
	if _, err := AtLeast(schema, "shoe_size", 5, 1); err == nil {
		t.Error("unknown field should fail")
	}
	if _, err := Is(schema, features.MotivationLevel, "Extreme", 1); err == nil {
		t.Error("category outside vocabulary should fail")
	}
	r, _ := AtLeast(schema, features.HoursStudied, 10, 0)
	if _, err := NewScorerWithRules([]Rule{r}); err == nil {
		t.Error("non-positive points should fail")
	}
}

func TestDefaultRules_FollowSchemaOrder(t *testing.T) {
	schema, err := features.NewSchema(
		features.DefaultSchema().NumericFields(),
		[]features.CategoricalField{
			{Name: features.ParentalInvolvement, Categories: []string{"None", "Some", "Full"}},
			{Name: features.MotivationLevel, Categories: []string{"Low", "High"}},
			{Name: features.PeerInfluence, Categories: []string{"Bad", "Good"}},
			{Name: features.InternetAccess, Categories: []string{"No", "Yes"}},
			{Name: features.ExtracurricularActivities, Categories: []string{"No", "Yes"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewScorer(schema)
	if err != nil {
		t.Fatal(err)
	}
	r := worst()
	r.ParentalInvolvement = "Full"
	r.PeerInfluence = "Good"
	if got := s.Score(r); got != 2 {
		t.Errorf("score = %d, want 2", got)
	}
}

func TestRules_CopyAndSumToMax(t *testing.T) {
	s := newScorer(t)
	rules := s.Rules()
	if len(rules) != 11 {
		t.Fatalf("rules = %d, want 11", len(rules))
	}
	sum := 0
	for _, r := range rules {
		sum += r.Points
	}
	if sum != s.MaxScore() {
		t.Errorf("points sum = %d, MaxScore = %d", sum, s.MaxScore())
	}
	rules[0].Points = 100
	if s.Rules()[0].Points == 100 {
		t.Error("Rules exposes the scorer's internal slice")
	}
}
