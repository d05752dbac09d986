package coach

import "github.com/abhisek/atrisk/internal/llm"

// NoteSchema is the structured output requested from the provider.
var NoteSchema = &llm.Schema{
	Name:        "coaching-note",
	Description: "A short counselling note for one student's predicted outcome",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Two or three sentences addressed to the student's counsellor",
			},
			"actions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "minLength": 1},
				"maxItems":    5,
				"description": "Concrete next steps, most important first",
			},
		},
		"required":             []any{"summary", "actions"},
		"additionalProperties": false,
	},
}
