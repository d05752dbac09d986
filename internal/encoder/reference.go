package encoder

import (
	"fmt"
	"math"

	"github.com/abhisek/atrisk/internal/features"
)

// Stat is the fitted location and scale of one numeric field.
type Stat struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// Reference holds the standardization parameters for every numeric field.
// It is built once at process start and never mutated afterwards.
type Reference struct {
	stats map[string]Stat
}

// NewReference builds a Reference from explicit per-field statistics.
// Every numeric field of the schema must be covered and every std must be
// positive.
func NewReference(schema *features.Schema, stats map[string]Stat) (*Reference, error) {
	ref := &Reference{stats: make(map[string]Stat, len(stats))}
	var missing []string
	for _, f := range schema.NumericFields() {
		st, ok := stats[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if !(st.Std > 0) || math.IsInf(st.Std, 0) || math.IsNaN(st.Mean) || math.IsInf(st.Mean, 0) {
			return nil, fmt.Errorf("reference for %s: std must be a positive finite number, mean finite", f.Name)
		}
		ref.stats[f.Name] = st
	}
	if len(missing) > 0 {
		return nil, &features.SchemaMismatchError{Fields: missing}
	}
	return ref, nil
}

// DefaultReference returns the statistics the shipped model artifacts were
// fitted against: the population mean and standard deviation of the two
// reference students (one at every low anchor, one at every high anchor).
func DefaultReference(schema *features.Schema) *Reference {
	ref, err := FitReference(schema, ReferenceRecords())
	if err != nil {
		panic(fmt.Sprintf("encoder: default reference: %v", err))
	}
	return ref
}

// ReferenceRecords returns the two anchor records behind DefaultReference.
func ReferenceRecords() []features.Record {
	return []features.Record{
		{
			HoursStudied: 20, AttendancePct: 80, SleepHours: 7,
			PhysicalActivity: 3, PreviousScore: 70, TutoringSessions: 1,
			ParentalInvolvement: "Low", MotivationLevel: "Low",
			PeerInfluence: "Negative", InternetAccess: "No",
			ExtracurricularActivities: "No",
		},
		{
			HoursStudied: 25, AttendancePct: 95, SleepHours: 8,
			PhysicalActivity: 5, PreviousScore: 85, TutoringSessions: 3,
			ParentalInvolvement: "High", MotivationLevel: "High",
			PeerInfluence: "Positive", InternetAccess: "Yes",
			ExtracurricularActivities: "Yes",
		},
	}
}

// FitReference computes population (ddof=0) statistics over records. A field
// with zero variance gets std 1 so that it standardizes to its offset from
// the mean rather than dividing by zero.
func FitReference(schema *features.Schema, records []features.Record) (*Reference, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("fit reference: no records")
	}
	stats := make(map[string]Stat)
	n := float64(len(records))
	for _, f := range schema.NumericFields() {
		var sum float64
		for _, r := range records {
			v, _ := r.Numeric(f.Name)
			sum += float64(v)
		}
		mean := sum / n

		var sq float64
		for _, r := range records {
			v, _ := r.Numeric(f.Name)
			d := float64(v) - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		if std == 0 {
			std = 1
		}
		stats[f.Name] = Stat{Mean: mean, Std: std}
	}
	return NewReference(schema, stats)
}

// Stat returns the statistics for a numeric field.
func (r *Reference) Stat(field string) (Stat, bool) {
	st, ok := r.stats[field]
	return st, ok
}

// Stats returns a copy of all statistics keyed by field name.
func (r *Reference) Stats() map[string]Stat {
	out := make(map[string]Stat, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}
