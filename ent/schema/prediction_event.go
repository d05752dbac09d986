package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PredictionEvent records every completed prediction.
type PredictionEvent struct {
	ent.Schema
}

func (PredictionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (PredictionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("request_id").
			Comment("UUID assigned when the request was received"),
		field.String("source").
			Comment("cli, batch or http"),
		field.String("model").
			Comment("Classifier variant: random-forest or logistic-regression"),
		field.String("outcome").
			Comment("Pass or AtRisk"),
		field.String("provenance").
			Comment("heuristic_override or model"),
		field.String("label").
			Comment("Raw classifier label"),
		field.Float("probability").
			Optional().
			Nillable().
			Comment("Classifier probability of its label, when reported"),
		field.Int("score").
			Comment("Indicator score"),
		field.Text("recommendations").
			Comment("JSON array of recommendation codes in priority order"),
		field.Text("input").
			Comment("JSON of the validated record"),
		field.Bool("cached").
			Default(false),
		field.Int64("latency_us").
			Default(0).
			Comment("Pipeline latency in microseconds"),
	}
}

func (PredictionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("outcome"),
		index.Fields("model"),
	}
}
