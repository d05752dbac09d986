package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Bodies and serialized inputs. Large enough for a full LLM exchange while
// staying a valid varchar length on Postgres.
const textSize = 1 << 20

var (
	// Every event table starts with id, sequence and timestamp.
	predictionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "request_id", Type: field.TypeString},
		{Name: "source", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "outcome", Type: field.TypeString},
		{Name: "provenance", Type: field.TypeString},
		{Name: "label", Type: field.TypeString},
		{Name: "probability", Type: field.TypeFloat64, Nullable: true},
		{Name: "score", Type: field.TypeInt},
		{Name: "recommendations", Type: field.TypeString, Size: textSize},
		{Name: "input", Type: field.TypeString, Size: textSize},
		{Name: "cached", Type: field.TypeBool, Default: false},
		{Name: "latency_us", Type: field.TypeInt64, Default: 0},
	}
	predictionEventsTable = &schema.Table{
		Name:       "prediction_events",
		Columns:    predictionEventsColumns,
		PrimaryKey: []*schema.Column{predictionEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "predictionevent_timestamp", Columns: []*schema.Column{predictionEventsColumns[2]}},
			{Name: "predictionevent_outcome", Columns: []*schema.Column{predictionEventsColumns[6]}},
			{Name: "predictionevent_model", Columns: []*schema.Column{predictionEventsColumns[5]}},
		},
	}

	llmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{llmRequestEventsColumns[9]}},
		},
	}

	globalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
	}

	tables = []*schema.Table{
		predictionEventsTable,
		llmRequestEventsTable,
		globalSequenceTable,
	}
)
