// Package encoder turns a features.Record into the numeric vector the
// classifiers were trained on: a drop-first one-hot block for the
// categorical fields followed by a standardized numeric block.
package encoder

import (
	"fmt"

	"github.com/abhisek/atrisk/internal/features"
)

// Vector is an encoded record. It is never modified after Encode returns.
type Vector struct {
	values []float64
}

// NewVector copies values into a Vector. Used by tests and by callers that
// hold pre-encoded data.
func NewVector(values []float64) Vector {
	return Vector{values: append([]float64(nil), values...)}
}

// Len returns the number of columns.
func (v Vector) Len() int { return len(v.values) }

// At returns the value of column i.
func (v Vector) At(i int) float64 { return v.values[i] }

// Values returns a copy of the column values.
func (v Vector) Values() []float64 { return append([]float64(nil), v.values...) }

// Encoder is safe for concurrent use; it holds only immutable state.
type Encoder struct {
	schema  *features.Schema
	ref     *Reference
	columns []string
}

// New creates an Encoder. The reference must cover every numeric field of
// the schema.
func New(schema *features.Schema, ref *Reference) (*Encoder, error) {
	var missing []string
	for _, f := range schema.NumericFields() {
		if _, ok := ref.Stat(f.Name); !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &features.SchemaMismatchError{Fields: missing}
	}

	var cols []string
	for _, f := range schema.CategoricalFields() {
		for _, c := range f.Categories[1:] {
			cols = append(cols, fmt.Sprintf("%s=%s", f.Name, c))
		}
	}
	for _, f := range schema.NumericFields() {
		cols = append(cols, f.Name)
	}

	return &Encoder{schema: schema, ref: ref, columns: cols}, nil
}

// Columns returns the names of the output columns in order.
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Width returns the fixed vector length.
func (e *Encoder) Width() int { return len(e.columns) }

// Reference returns the standardization parameters in use.
func (e *Encoder) Reference() *Reference { return e.ref }

// Encode transforms r. Unknown categories encode as all-zero indicators for
// their field. A schema field the record cannot supply is a
// SchemaMismatchError.
func (e *Encoder) Encode(r features.Record) (Vector, error) {
	out := make([]float64, 0, len(e.columns))
	var missing []string

	for _, f := range e.schema.CategoricalFields() {
		v, ok := r.Categorical(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		idx := f.Index(v)
		for i := 1; i < len(f.Categories); i++ {
			if i == idx {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	for _, f := range e.schema.NumericFields() {
		v, ok := r.Numeric(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		st, _ := e.ref.Stat(f.Name)
		out = append(out, (float64(v)-st.Mean)/st.Std)
	}

	if len(missing) > 0 {
		return Vector{}, &features.SchemaMismatchError{Fields: missing}
	}
	return Vector{values: out}, nil
}
