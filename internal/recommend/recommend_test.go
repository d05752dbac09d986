package recommend

import (
	"reflect"
	"testing"

	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/features"
)

func worst() features.Record {
	return features.Record{
		HoursStudied: 1, AttendancePct: 50, SleepHours: 4,
		PhysicalActivity: 0, PreviousScore: 50, TutoringSessions: 0,
		ParentalInvolvement: "Low", MotivationLevel: "Low",
		PeerInfluence: "Negative", InternetAccess: "No",
		ExtracurricularActivities: "No",
	}
}

func best() features.Record {
	return features.Record{
		HoursStudied: 30, AttendancePct: 100, SleepHours: 9,
		PhysicalActivity: 6, PreviousScore: 95, TutoringSessions: 4,
		ParentalInvolvement: "High", MotivationLevel: "High",
		PeerInfluence: "Positive", InternetAccess: "Yes",
		ExtracurricularActivities: "Yes",
	}
}

func newGen(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(features.DefaultSchema())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func codes(recs []Recommendation) []Code {
	var out []Code
	for _, r := range recs {
		out = append(out, r.Code)
	}
	return out
}

func TestGenerate_AllSevenInOrder(t *testing.T) {
	recs := newGen(t).Generate(worst(), decision.Verdict{Outcome: decision.AtRisk})
	want := []Code{IncreaseStudy, ImproveAttendance, ImproveSleep, IncreaseActivity, AddTutoring, MotivationSupport, EngageParents}
	if got := codes(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for _, r := range recs {
		if !r.Urgent {
			t.Errorf("%s should be urgent for AtRisk", r.Code)
		}
	}
}

func TestGenerate_NoneForBest(t *testing.T) {
	recs := newGen(t).Generate(best(), decision.Verdict{Outcome: decision.Pass})
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %v, want empty non-nil", recs)
	}
}

func TestGenerate_PassDoesNotSuppress(t *testing.T) {
	r := best()
	r.SleepHours = 6
	recs := newGen(t).Generate(r, decision.Verdict{Outcome: decision.Pass})
	if len(recs) != 1 || recs[0].Code != ImproveSleep {
		t.Fatalf("recs = %v", recs)
	}
	if recs[0].Urgent {
		t.Error("Pass recommendations are not urgent")
	}
}

func TestGenerate_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*features.Record)
		want   []Code
	}{
		{"hours 19", func(r *features.Record) { r.HoursStudied = 19 }, []Code{IncreaseStudy}},
		{"hours 20", func(r *features.Record) { r.HoursStudied = 20 }, nil},
		{"attendance 84", func(r *features.Record) { r.AttendancePct = 84 }, []Code{ImproveAttendance}},
		{"attendance 85", func(r *features.Record) { r.AttendancePct = 85 }, nil},
		{"sleep 7", func(r *features.Record) { r.SleepHours = 7 }, nil},
		{"activity 2", func(r *features.Record) { r.PhysicalActivity = 2 }, []Code{IncreaseActivity}},
		{"tutoring 1", func(r *features.Record) { r.TutoringSessions = 1 }, []Code{AddTutoring}},
		{"tutoring 2", func(r *features.Record) { r.TutoringSessions = 2 }, nil},
		{"motivation medium", func(r *features.Record) { r.MotivationLevel = "Medium" }, nil},
		{"motivation low", func(r *features.Record) { r.MotivationLevel = "Low" }, []Code{MotivationSupport}},
		{"parental low", func(r *features.Record) { r.ParentalInvolvement = "Low" }, []Code{EngageParents}},
	}
	g := newGen(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := best()
			tt.mutate(&r)
			got := codes(g.Generate(r, decision.Verdict{Outcome: decision.Pass}))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("codes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerate_LowestCategoryFromSchema(t *testing.T) {
	schema, err := features.NewSchema(features.DefaultSchema().NumericFields(), []features.CategoricalField{
		{Name: features.ParentalInvolvement, Categories: []string{"Absent", "Present"}},
		{Name: features.MotivationLevel, Categories: []string{"Weak", "Strong"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGenerator(schema)
	if err != nil {
		t.Fatal(err)
	}
	r := best()
	r.MotivationLevel = "Weak"
	r.ParentalInvolvement = "Low"
	got := codes(g.Generate(r, decision.Verdict{Outcome: decision.Pass}))
	if !reflect.DeepEqual(got, []Code{MotivationSupport}) {
		t.Errorf("codes = %v", got)
	}
}

func TestNewGenerator_MissingField(t *testing.T) {
	schema, _ := features.NewSchema(features.DefaultSchema().NumericFields(), nil)
	if _, err := NewGenerator(schema); err == nil {
		t.Error("expected error for schema without motivation field")
	}
}

func TestNewGeneratorWithTriggers(t *testing.T) {
	ts := []Trigger{
		Below(features.SleepHours, 7, ImproveSleep, "sleep"),
		Below(features.HoursStudied, 20, IncreaseStudy, "study"),
	}
	g := NewGeneratorWithTriggers(ts)
	ts[0] = Below(features.AttendancePct, 85, ImproveAttendance, "attend")

	got := codes(g.Generate(worst(), decision.Verdict{Outcome: decision.AtRisk}))
	want := []Code{ImproveSleep, IncreaseStudy}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if recs := g.Generate(best(), decision.Verdict{Outcome: decision.Pass}); len(recs) != 0 {
		t.Errorf("best record produced %v", codes(recs))
	}
}
