// Package coach turns a prediction into a short narrative note using an
// LLM provider. The note is advisory and never changes the verdict or the
// recommendations it was given.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/llm"
	"github.com/abhisek/atrisk/internal/predictor"
)

// Purpose labels coaching requests in the LLM event log.
const Purpose = "coaching"

// Note is a generated coaching note.
type Note struct {
	Summary string   `json:"summary"`
	Actions []string `json:"actions"`
}

// Config controls generation.
type Config struct {
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=64"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{MaxTokens: 512, Temperature: 0.4}
}

// Coach generates notes.
type Coach struct {
	provider llm.Provider
	schema   *features.Schema
	config   Config
}

// New creates a Coach.
func New(provider llm.Provider, schema *features.Schema, cfg Config) *Coach {
	return &Coach{provider: provider, schema: schema, config: cfg}
}

// Note requests a note for r and its outcome.
func (c *Coach) Note(ctx context.Context, r features.Record, o *predictor.Outcome) (*Note, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(c.schema, r, o)),
		Schema:      NoteSchema,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("coaching note: %w", err)
	}

	var n Note
	if err := json.Unmarshal(resp.Content, &n); err != nil {
		return nil, fmt.Errorf("parse coaching note: %w", err)
	}
	n.Summary = strings.TrimSpace(n.Summary)
	if n.Summary == "" {
		return nil, fmt.Errorf("coaching note: empty summary")
	}
	if n.Actions == nil {
		n.Actions = []string{}
	}
	return &n, nil
}
