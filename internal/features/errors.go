package features

import (
	"fmt"
	"strings"
)

// ValidationError indicates a field whose value is structurally invalid or
// outside the schema's declared bounds.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// SchemaMismatchError indicates required fields absent from the input.
type SchemaMismatchError struct {
	Fields []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: missing %s", strings.Join(e.Fields, ", "))
}
