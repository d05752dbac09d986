package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/app"
	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/dataset"
)

// batchRow is one input row and, once run, its outcome.
type batchRow struct {
	Line   int
	Values []string
	Result *app.Result
	Err    error
}

// resultColumns are appended to the input columns in CSV output.
var resultColumns = []string{"outcome", "provenance", "probability", "score", "rule", "recommendations", "error"}

var batchCmd = &cobra.Command{
	Use:   "batch <file.csv>",
	Short: "Predict every row of a CSV file",
	Long: "Reads a CSV file with a header row naming the input fields (extra columns such as\n" +
		"a student id are passed through) and writes one result per row in input order.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		if format != "csv" && format != "jsonl" {
			return fmt.Errorf("unknown format %q (want csv or jsonl)", format)
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = settings.Batch.Workers
		}
		variant, err := modelFlag(cmd)
		if err != nil {
			return err
		}
		withCoach, _ := cmd.Flags().GetBool("coach")

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			in = f
		}
		header, rows, err := dataset.ReadCSV(in)
		if err != nil {
			return err
		}

		rt, err := buildApp(ctx, cmd, withCoach)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" && path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		results, err := runBatch(cmd, rt.app, header, rows, variant, withCoach, workers)
		if err != nil {
			return err
		}

		if format == "jsonl" {
			err = writeBatchJSONL(out, results)
		} else {
			err = writeBatchCSV(out, header, results)
		}
		if err != nil {
			return fmt.Errorf("write results: %w", err)
		}

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		slog.Info("batch finished", "rows", len(results), "failed", failed, "workers", workers)
		if failed > 0 {
			return fmt.Errorf("%d of %d rows failed", failed, len(results))
		}
		return nil
	},
}

// runBatch parses every row, predicts the valid ones concurrently and
// returns one batchRow per input row in input order.
func runBatch(cmd *cobra.Command, a *app.App, header []string, rows []dataset.Row, variant classifier.Variant, withCoach bool, workers int) ([]batchRow, error) {
	schema := a.Service().Schema()
	results := make([]batchRow, len(rows))
	var reqs []app.Request
	var slots []int

	for i, row := range rows {
		values := make([]string, len(header))
		for j, h := range header {
			values[j] = row.Values[h]
		}
		results[i] = batchRow{Line: row.Line, Values: values}

		rec, err := schema.ParseStrings(row.Values)
		if err != nil {
			results[i].Err = err
			continue
		}
		reqs = append(reqs, app.Request{Record: rec, Variant: variant, Source: app.SourceBatch, Coach: withCoach})
		slots = append(slots, i)
	}

	items, err := a.PredictBatch(cmd.Context(), reqs, workers)
	if err != nil {
		return nil, err
	}
	for k, item := range items {
		results[slots[k]].Result = item.Result
		results[slots[k]].Err = item.Err
	}
	return results, nil
}

func writeBatchCSV(w io.Writer, header []string, rows []batchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), header...), resultColumns...)); err != nil {
		return err
	}
	for _, r := range rows {
		rec := append([]string(nil), r.Values...)
		if r.Err != nil {
			rec = append(rec, "", "", "", "", "", "", r.Err.Error())
		} else {
			o := r.Result.Outcome
			prob := ""
			if p := o.Verdict.Probability; p != nil {
				prob = strconv.FormatFloat(*p, 'f', 4, 64)
			}
			codes := make([]string, len(o.Recommendations))
			for i, rc := range o.Recommendations {
				codes[i] = string(rc.Code)
			}
			rec = append(rec,
				string(o.Verdict.Outcome),
				string(o.Verdict.Provenance),
				prob,
				strconv.Itoa(o.Score),
				o.Verdict.Rule,
				strings.Join(codes, ";"),
				"",
			)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type batchLine struct {
	Line   int         `json:"line"`
	Result *app.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func writeBatchJSONL(w io.Writer, rows []batchRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		line := batchLine{Line: r.Line, Result: r.Result}
		if r.Err != nil {
			line.Error = r.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	batchCmd.Flags().StringP("model", "m", "", "Model: random-forest (rf) or logistic-regression (lr)")
	batchCmd.Flags().StringP("output", "o", "", "Write results to a file instead of stdout")
	batchCmd.Flags().StringP("format", "f", "csv", "Output format: csv or jsonl")
	batchCmd.Flags().IntP("workers", "w", 0, "Concurrent predictions (default from config)")
	batchCmd.Flags().Bool("coach", false, "Ask the configured LLM for a coaching note per row")
}
