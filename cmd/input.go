package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/atrisk/internal/features"
)

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// addRecordFlags registers one flag per schema field plus --input.
func addRecordFlags(cmd *cobra.Command, schema *features.Schema) {
	for _, f := range schema.NumericFields() {
		cmd.Flags().String(flagName(f.Name), "", fmt.Sprintf("%s (%d-%d)", f.Description, f.Min, f.Max))
	}
	for _, f := range schema.CategoricalFields() {
		cmd.Flags().String(flagName(f.Name), "", fmt.Sprintf("%s (%s)", f.Description, strings.Join(f.Categories, ", ")))
	}
	cmd.Flags().StringP("input", "i", "", "Read the record from a JSON or YAML file (- for stdin); field flags override it")
}

// readRecord builds a record from --input and the field flags. Keys the
// schema does not define are rejected.
func readRecord(cmd *cobra.Command, schema *features.Schema) (features.Record, error) {
	raw := map[string]any{}

	if path, _ := cmd.Flags().GetString("input"); path != "" {
		data, err := readInput(cmd, path)
		if err != nil {
			return features.Record{}, err
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return features.Record{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		if unknown := schema.UnknownFields(raw); len(unknown) > 0 {
			return features.Record{}, fmt.Errorf("unknown fields in %s: %s", path, strings.Join(unknown, ", "))
		}
	}

	for _, f := range schema.NumericFields() {
		fl := cmd.Flags().Lookup(flagName(f.Name))
		if fl == nil || !fl.Changed {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(fl.Value.String()))
		if err != nil {
			return features.Record{}, &features.ValidationError{Field: f.Name, Value: fl.Value.String(), Reason: "must be an integer"}
		}
		raw[f.Name] = n
	}
	for _, f := range schema.CategoricalFields() {
		if fl := cmd.Flags().Lookup(flagName(f.Name)); fl != nil && fl.Changed {
			raw[f.Name] = fl.Value.String()
		}
	}

	r, err := schema.ParseRecord(raw)
	if err != nil {
		var mismatch *features.SchemaMismatchError
		if errors.As(err, &mismatch) {
			flags := make([]string, len(mismatch.Fields))
			for i, name := range mismatch.Fields {
				flags[i] = "--" + flagName(name)
			}
			return features.Record{}, fmt.Errorf("%w (set %s or use --input)", err, strings.Join(flags, ", "))
		}
		return features.Record{}, err
	}
	return r, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
