package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate prediction statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOpts(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.EventRepo().PredictionStats(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), st)
		}

		w := cmd.OutOrStdout()
		if st.Total == 0 {
			fmt.Fprintln(w, "No predictions recorded yet.")
			return nil
		}

		fmt.Fprintf(w, "Predictions:     %d\n", st.Total)
		fmt.Fprintf(w, "Average score:   %.1f\n", st.AvgScore)
		printCounts(w, "By outcome", st.ByOutcome, st.Total)
		printCounts(w, "Decided by", st.ByProvenance, st.Total)
		printCounts(w, "By model", st.ByModel, st.Total)
		return nil
	},
}

func printCounts(w io.Writer, title string, counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", 40))
	for _, k := range keys {
		n := counts[k]
		fmt.Fprintf(w, "%-22s  %6d  %5.1f%%\n", k, n, 100*float64(n)/float64(total))
	}
}

func init() {
	statsCmd.Flags().StringP("model", "m", "", "Only predictions made with this model")
	statsCmd.Flags().Duration("since", 0, "Only predictions newer than this (e.g. 168h)")
	statsCmd.Flags().Bool("json", false, "Print statistics as JSON")
}
