package features

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record holds one student's eleven indicators.
type Record struct {
	HoursStudied     int `json:"hours_studied" yaml:"hours_studied"`
	AttendancePct    int `json:"attendance_pct" yaml:"attendance_pct"`
	SleepHours       int `json:"sleep_hours" yaml:"sleep_hours"`
	PhysicalActivity int `json:"physical_activity" yaml:"physical_activity"`
	PreviousScore    int `json:"previous_score" yaml:"previous_score"`
	TutoringSessions int `json:"tutoring_sessions" yaml:"tutoring_sessions"`

	ParentalInvolvement       string `json:"parental_involvement" yaml:"parental_involvement"`
	MotivationLevel           string `json:"motivation_level" yaml:"motivation_level"`
	PeerInfluence             string `json:"peer_influence" yaml:"peer_influence"`
	InternetAccess            string `json:"internet_access" yaml:"internet_access"`
	ExtracurricularActivities string `json:"extracurricular_activities" yaml:"extracurricular_activities"`
}

// Numeric returns the value of a numeric field by name.
func (r Record) Numeric(name string) (int, bool) {
	switch name {
	case HoursStudied:
		return r.HoursStudied, true
	case AttendancePct:
		return r.AttendancePct, true
	case SleepHours:
		return r.SleepHours, true
	case PhysicalActivity:
		return r.PhysicalActivity, true
	case PreviousScore:
		return r.PreviousScore, true
	case TutoringSessions:
		return r.TutoringSessions, true
	}
	return 0, false
}

// Categorical returns the value of a categorical field by name.
func (r Record) Categorical(name string) (string, bool) {
	switch name {
	case ParentalInvolvement:
		return r.ParentalInvolvement, true
	case MotivationLevel:
		return r.MotivationLevel, true
	case PeerInfluence:
		return r.PeerInfluence, true
	case InternetAccess:
		return r.InternetAccess, true
	case ExtracurricularActivities:
		return r.ExtracurricularActivities, true
	}
	return "", false
}

func (r *Record) setNumeric(name string, v int) bool {
	switch name {
	case HoursStudied:
		r.HoursStudied = v
	case AttendancePct:
		r.AttendancePct = v
	case SleepHours:
		r.SleepHours = v
	case PhysicalActivity:
		r.PhysicalActivity = v
	case PreviousScore:
		r.PreviousScore = v
	case TutoringSessions:
		r.TutoringSessions = v
	default:
		return false
	}
	return true
}

func (r *Record) setCategorical(name, v string) bool {
	switch name {
	case ParentalInvolvement:
		r.ParentalInvolvement = v
	case MotivationLevel:
		r.MotivationLevel = v
	case PeerInfluence:
		r.PeerInfluence = v
	case InternetAccess:
		r.InternetAccess = v
	case ExtracurricularActivities:
		r.ExtracurricularActivities = v
	default:
		return false
	}
	return true
}

// Canonical returns a stable textual form of the record, fields in schema
// order. Two records with equal values always produce the same string.
func (r Record) Canonical(s *Schema) string {
	var b strings.Builder
	for _, f := range s.numeric {
		v, _ := r.Numeric(f.Name)
		fmt.Fprintf(&b, "%s=%d;", f.Name, v)
	}
	for _, f := range s.categorical {
		v, _ := r.Categorical(f.Name)
		fmt.Fprintf(&b, "%s=%s;", f.Name, v)
	}
	return b.String()
}

// ParseRecord converts loosely typed input (decoded JSON or YAML) into a
// Record. Every schema field must be present; all absent fields are reported
// together as a SchemaMismatchError. Values of the wrong type are reported
// as ValidationError. Bounds are not checked here; see Schema.Validate.
func (s *Schema) ParseRecord(raw map[string]any) (Record, error) {
	var r Record
	var missing []string

	for _, f := range s.numeric {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			missing = append(missing, f.Name)
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return Record{}, &ValidationError{Field: f.Name, Value: v, Reason: err.Error()}
		}
		r.setNumeric(f.Name, n)
	}

	for _, f := range s.categorical {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			missing = append(missing, f.Name)
			continue
		}
		str, ok := v.(string)
		if !ok {
			return Record{}, &ValidationError{Field: f.Name, Value: v, Reason: "must be a string"}
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return Record{}, &ValidationError{Field: f.Name, Value: v, Reason: "must not be empty"}
		}
		r.setCategorical(f.Name, str)
	}

	if len(missing) > 0 {
		return Record{}, &SchemaMismatchError{Fields: missing}
	}
	return r, nil
}

// ParseStrings is ParseRecord for textual sources such as CSV rows and
// command-line flags. Numeric fields must parse as base-10 integers.
func (s *Schema) ParseStrings(raw map[string]string) (Record, error) {
	generic := make(map[string]any, len(raw))
	for k, v := range raw {
		generic[k] = v
	}
	for _, f := range s.numeric {
		v, ok := raw[f.Name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Record{}, &ValidationError{Field: f.Name, Value: v, Reason: "must be an integer"}
		}
		generic[f.Name] = n
	}
	return s.ParseRecord(generic)
}

// UnknownFields returns keys of raw that the schema does not define, sorted.
func (s *Schema) UnknownFields(raw map[string]any) []string {
	known := make(map[string]bool)
	for _, n := range s.FieldNames() {
		known[n] = true
	}
	var out []string
	for k := range raw {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("out of integer range")
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}
