package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-object",
		Description: "A test object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			},
			"required": []any{"name", "age"},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(testSchema(), json.RawMessage(`{"name":"Alice","age":10,"grade":"A"}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := Validate(testSchema(), json.RawMessage(`{"name":"Bob","age":8}`)); err != nil {
		t.Fatalf("optional field omitted: %v", err)
	}
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	if err := Validate(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should accept anything, got: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"name":"Charlie"}`},
		{"wrong type", `{"name":"Dana","age":"ten"}`},
		{"enum violation", `{"name":"Eve","age":9,"grade":"Z"}`},
		{"below minimum", `{"name":"Finn","age":-1}`},
		{"invalid json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(testSchema(), json.RawMessage(tt.raw))
			var inv *InvalidResponseError
			if !errors.As(err, &inv) {
				t.Fatalf("expected *InvalidResponseError, got %T (%v)", err, err)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("Content = %s, want %s", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidate_GoTypedDefinition(t *testing.T) {
	s := &Schema{
		Name: "typed-def",
		Definition: map[string]any{
			"type":     "object",
			"required": []string{"items"},
			"properties": map[string]any{
				"items": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 2},
			},
		},
	}
	if err := Validate(s, json.RawMessage(`{"items":["a","b"]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(s, json.RawMessage(`{"items":["a","b","c"]}`)); err == nil {
		t.Fatal("expected maxItems violation")
	}
}
