package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/report"
	"github.com/abhisek/atrisk/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded predictions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent predictions",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOpts(cmd)
		if err != nil {
			return err
		}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Outcome, _ = cmd.Flags().GetString("outcome")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryPredictions(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), events)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No predictions recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-5s  %-19s  %-6s  %-20s  %-7s  %-17s  %5s  %6s  %s\n",
			"ID", "Timestamp", "Source", "Model", "Outcome", "Decided by", "Score", "Prob", "Recommendations")
		fmt.Fprintln(w, strings.Repeat("─", 110))
		for _, e := range events {
			prob := "-"
			if e.Probability != nil {
				prob = fmt.Sprintf("%.2f", *e.Probability)
			}
			model := e.Model
			if v, err := classifier.ParseVariant(e.Model); err == nil {
				model = v.DisplayName()
			}
			cached := ""
			if e.Cached {
				cached = " (cached)"
			}
			fmt.Fprintf(w, "%-5d  %-19s  %-6s  %-20s  %-7s  %-17s  %5d  %6s  %s%s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Source,
				truncate(model, 20),
				e.Outcome,
				e.Provenance,
				e.Score,
				prob,
				strings.Join(e.Recommendations, ","),
				cached,
			)
		}
		return nil
	},
}

var historyViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View one recorded prediction with its input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetPrediction(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("prediction %d not found", id)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), e)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ID:          %d\n", e.Sequence)
		fmt.Fprintf(w, "Request:     %s\n", e.RequestID)
		fmt.Fprintf(w, "Time:        %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Source:      %s\n", e.Source)
		fmt.Fprintf(w, "Model:       %s\n", e.Model)
		fmt.Fprintf(w, "Outcome:     %s\n", e.Outcome)
		fmt.Fprintf(w, "Decided by:  %s\n", e.Provenance)
		fmt.Fprintf(w, "Label:       %s\n", e.Label)
		if e.Probability != nil {
			fmt.Fprintf(w, "Probability: %.4f\n", *e.Probability)
		}
		fmt.Fprintf(w, "Score:       %d\n", e.Score)
		fmt.Fprintf(w, "Cached:      %v\n", e.Cached)
		fmt.Fprintf(w, "Latency:     %s\n", e.Latency.Round(time.Microsecond))
		if len(e.Recommendations) > 0 {
			fmt.Fprintf(w, "Recommend:   %s\n", strings.Join(e.Recommendations, ", "))
		}

		sep := strings.Repeat("─", 60)
		fmt.Fprintln(w)
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "INPUT")
		fmt.Fprintln(w, sep)
		if e.Input != "" {
			fmt.Fprintln(w, e.Input)
		} else {
			fmt.Fprintln(w, "(not captured)")
		}
		return nil
	},
}

// queryOpts reads the shared --since and --model filters.
func queryOpts(cmd *cobra.Command) (store.QueryOpts, error) {
	var opts store.QueryOpts
	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		opts.From = time.Now().Add(-since)
	}
	if name, _ := cmd.Flags().GetString("model"); name != "" {
		v, err := classifier.ParseVariant(name)
		if err != nil {
			return opts, err
		}
		opts.Model = string(v)
	}
	return opts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of predictions to show")
	historyListCmd.Flags().String("outcome", "", "Filter by outcome (Pass or AtRisk)")
	historyListCmd.Flags().StringP("model", "m", "", "Filter by model")
	historyListCmd.Flags().Duration("since", 0, "Only predictions newer than this (e.g. 24h)")
	historyListCmd.Flags().Bool("json", false, "Print events as JSON")
	historyViewCmd.Flags().Bool("json", false, "Print the event as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyViewCmd)
}
