// Package dataset reads student records from CSV files with a header row.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abhisek/atrisk/internal/features"
)

// Row is one CSV data row keyed by header name. Line is 1-based and counts
// the header.
type Row struct {
	Line   int
	Values map[string]string
}

// ReadCSV reads every row of r. Header names are trimmed and lowercased;
// duplicate or empty names are an error.
func ReadCSV(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("dataset: empty input")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: read header: %w", err)
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if h == "" || seen[h] {
			return nil, nil, fmt.Errorf("dataset: invalid or duplicate column %q", header[i])
		}
		seen[h] = true
		header[i] = h
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		values := make(map[string]string, len(header))
		for i, h := range header {
			values[h] = rec[i]
		}
		rows = append(rows, Row{Line: line, Values: values})
	}
	return header, rows, nil
}

// ReadRecords parses and validates every row against schema. Columns the schema does not
// know are ignored; the first invalid row fails the whole read.
func ReadRecords(schema *features.Schema, r io.Reader) ([]features.Record, error) {
	_, rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	records := make([]features.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := schema.ParseStrings(row.Values)
		if err == nil {
			err = schema.Validate(rec)
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", row.Line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRecordsFile is ReadRecords over a file.
func ReadRecordsFile(schema *features.Schema, path string) ([]features.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return ReadRecords(schema, f)
}
