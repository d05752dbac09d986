package features

import "fmt"

// Field names. These are the keys used on every boundary (JSON, YAML, CSV,
// HTTP) and the prefixes of the encoded column names.
const (
	HoursStudied     = "hours_studied"
	AttendancePct    = "attendance_pct"
	SleepHours       = "sleep_hours"
	PhysicalActivity = "physical_activity"
	PreviousScore    = "previous_score"
	TutoringSessions = "tutoring_sessions"

	ParentalInvolvement       = "parental_involvement"
	MotivationLevel           = "motivation_level"
	PeerInfluence             = "peer_influence"
	InternetAccess            = "internet_access"
	ExtracurricularActivities = "extracurricular_activities"
)

// NumericField describes a bounded integer input.
type NumericField struct {
	Name        string
	Min         int // inclusive
	Max         int // inclusive
	Description string
}

// Contains reports whether v lies within the field's inclusive bounds.
func (f NumericField) Contains(v int) bool {
	return v >= f.Min && v <= f.Max
}

// CategoricalField describes an input drawn from an ordered vocabulary.
// The first category is the reference level dropped by the encoder.
type CategoricalField struct {
	Name        string
	Categories  []string
	Description string
}

// Index returns the position of category in the vocabulary, or -1.
func (f CategoricalField) Index(category string) int {
	for i, c := range f.Categories {
		if c == category {
			return i
		}
	}
	return -1
}

// Lowest returns the first (reference) category.
func (f CategoricalField) Lowest() string { return f.Categories[0] }

// Highest returns the last category in declared order.
func (f CategoricalField) Highest() string { return f.Categories[len(f.Categories)-1] }

// Schema is the static definition of the model inputs. Field order inside
// each block is the canonical order used by every consumer.
type Schema struct {
	numeric     []NumericField
	categorical []CategoricalField
}

// NewSchema builds a schema from explicit field definitions. Names must be
// unique, bounds ordered, and every categorical field needs at least two
// categories so that drop-first encoding leaves a column.
func NewSchema(numeric []NumericField, categorical []CategoricalField) (*Schema, error) {
	seen := make(map[string]bool)
	s := &Schema{}
	for _, f := range numeric {
		if f.Name == "" || seen[f.Name] {
			return nil, fmt.Errorf("numeric field %q: empty or duplicate name", f.Name)
		}
		if f.Min > f.Max {
			return nil, fmt.Errorf("numeric field %q: min %d > max %d", f.Name, f.Min, f.Max)
		}
		seen[f.Name] = true
		s.numeric = append(s.numeric, f)
	}
	for _, f := range categorical {
		if f.Name == "" || seen[f.Name] {
			return nil, fmt.Errorf("categorical field %q: empty or duplicate name", f.Name)
		}
		if len(f.Categories) < 2 {
			return nil, fmt.Errorf("categorical field %q: needs at least two categories", f.Name)
		}
		cats := make(map[string]bool)
		for _, c := range f.Categories {
			if c == "" || cats[c] {
				return nil, fmt.Errorf("categorical field %q: empty or duplicate category %q", f.Name, c)
			}
			cats[c] = true
		}
		seen[f.Name] = true
		f.Categories = append([]string(nil), f.Categories...)
		s.categorical = append(s.categorical, f)
	}
	return s, nil
}

// DefaultSchema returns the eleven-field schema the shipped models were
// trained on.
func DefaultSchema() *Schema {
	return &Schema{
		numeric: []NumericField{
			{Name: HoursStudied, Min: 1, Max: 50, Description: "Hours studied per week"},
			{Name: AttendancePct, Min: 50, Max: 100, Description: "Class attendance (%)"},
			{Name: SleepHours, Min: 4, Max: 10, Description: "Average sleep per night (hours)"},
			{Name: PhysicalActivity, Min: 0, Max: 6, Description: "Physical activity sessions per week"},
			{Name: PreviousScore, Min: 50, Max: 100, Description: "Previous exam score"},
			{Name: TutoringSessions, Min: 0, Max: 5, Description: "Tutoring sessions per month"},
		},
		categorical: []CategoricalField{
			{Name: ParentalInvolvement, Categories: []string{"Low", "Medium", "High"}, Description: "Parental involvement"},
			{Name: MotivationLevel, Categories: []string{"Low", "Medium", "High"}, Description: "Motivation level"},
			{Name: PeerInfluence, Categories: []string{"Negative", "Neutral", "Positive"}, Description: "Peer influence"},
			{Name: InternetAccess, Categories: []string{"No", "Yes"}, Description: "Internet access at home"},
			{Name: ExtracurricularActivities, Categories: []string{"No", "Yes"}, Description: "Takes part in extracurricular activities"},
		},
	}
}

// NumericFields returns the numeric fields in canonical order.
func (s *Schema) NumericFields() []NumericField {
	out := make([]NumericField, len(s.numeric))
	copy(out, s.numeric)
	return out
}

// CategoricalFields returns the categorical fields in canonical order.
// Category slices are copies; callers cannot mutate the schema.
func (s *Schema) CategoricalFields() []CategoricalField {
	out := make([]CategoricalField, len(s.categorical))
	for i, f := range s.categorical {
		f.Categories = append([]string(nil), f.Categories...)
		out[i] = f
	}
	return out
}

// Numeric looks up a numeric field by name.
func (s *Schema) Numeric(name string) (NumericField, bool) {
	for _, f := range s.numeric {
		if f.Name == name {
			return f, true
		}
	}
	return NumericField{}, false
}

// Categorical looks up a categorical field by name.
func (s *Schema) Categorical(name string) (CategoricalField, bool) {
	for _, f := range s.categorical {
		if f.Name == name {
			f.Categories = append([]string(nil), f.Categories...)
			return f, true
		}
	}
	return CategoricalField{}, false
}

// MustCategorical is Categorical for fields known at compile time.
func (s *Schema) MustCategorical(name string) CategoricalField {
	f, ok := s.Categorical(name)
	if !ok {
		panic(fmt.Sprintf("features: unknown categorical field %q", name))
	}
	return f
}

// MustNumeric is Numeric for fields known at compile time.
func (s *Schema) MustNumeric(name string) NumericField {
	f, ok := s.Numeric(name)
	if !ok {
		panic(fmt.Sprintf("features: unknown numeric field %q", name))
	}
	return f
}

// FieldNames returns every field name, numeric block first.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.numeric)+len(s.categorical))
	for _, f := range s.numeric {
		names = append(names, f.Name)
	}
	for _, f := range s.categorical {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks a record against the schema. Numeric values outside their
// bounds are rejected. Categorical values must be non-empty; a well-formed
// value outside the vocabulary is accepted and left to the encoder's
// unknown-category policy.
func (s *Schema) Validate(r Record) error {
	var missing []string
	for _, f := range s.numeric {
		v, ok := r.Numeric(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if !f.Contains(v) {
			return &ValidationError{
				Field:  f.Name,
				Value:  v,
				Reason: fmt.Sprintf("must be between %d and %d", f.Min, f.Max),
			}
		}
	}
	for _, f := range s.categorical {
		v, ok := r.Categorical(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if v == "" {
			return &ValidationError{Field: f.Name, Value: v, Reason: "must not be empty"}
		}
	}
	if len(missing) > 0 {
		return &SchemaMismatchError{Fields: missing}
	}
	return nil
}
