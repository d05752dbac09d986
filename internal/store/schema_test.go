package store

import (
	"testing"

	"entgo.io/ent"
	entschema "entgo.io/ent/dialect/sql/schema"

	"github.com/abhisek/atrisk/ent/schema"
)

type declared interface {
	Fields() []ent.Field
	Indexes() []ent.Index
}

// checkTable verifies that a migrated table carries every field and index
// declared in ent/schema, with matching types.
func checkTable(t *testing.T, table *entschema.Table, decl declared) {
	t.Helper()
	mixin := schema.EventMixin{}
	fields := append(mixin.Fields(), decl.Fields()...)
	indexes := append(mixin.Indexes(), decl.Indexes()...)

	columns := make(map[string]*entschema.Column)
	for _, c := range table.Columns {
		columns[c.Name] = c
	}
	if len(columns) != len(fields)+1 {
		t.Errorf("%s: %d columns, want %d fields plus id", table.Name, len(columns), len(fields))
	}
	for _, f := range fields {
		d := f.Descriptor()
		c, ok := columns[d.Name]
		if !ok {
			t.Errorf("%s: missing column %q", table.Name, d.Name)
			continue
		}
		if c.Type != d.Info.Type {
			t.Errorf("%s.%s: type %v, want %v", table.Name, d.Name, c.Type, d.Info.Type)
		}
		if c.Nullable != d.Optional {
			t.Errorf("%s.%s: nullable = %v, want %v", table.Name, d.Name, c.Nullable, d.Optional)
		}
	}

	indexed := make(map[string]bool)
	for _, idx := range table.Indexes {
		for _, c := range idx.Columns {
			indexed[c.Name] = true
		}
	}
	for _, idx := range indexes {
		for _, name := range idx.Descriptor().Fields {
			if !indexed[name] {
				t.Errorf("%s: column %q is not indexed", table.Name, name)
			}
		}
	}
}

func TestTablesMatchDeclaredSchema(t *testing.T) {
	checkTable(t, predictionEventsTable, schema.PredictionEvent{})
	checkTable(t, llmRequestEventsTable, schema.LLMRequestEvent{})
}
