package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/httpapi"
	"github.com/abhisek/atrisk/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show input fields, bounds, categories and encoded columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(settings)
		if err != nil {
			return err
		}
		view := httpapi.DescribeSchema(svc)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), view)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Numeric fields")
		fmt.Fprintln(w, strings.Repeat("─", 78))
		fmt.Fprintf(w, "%-20s  %5s  %5s  %8s  %8s  %s\n", "Field", "Min", "Max", "Mean", "Std", "Description")
		for _, f := range view.Numeric {
			fmt.Fprintf(w, "%-20s  %5d  %5d  %8.3f  %8.3f  %s\n", f.Name, f.Min, f.Max, f.Mean, f.Std, f.Description)
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Categorical fields")
		fmt.Fprintln(w, strings.Repeat("─", 78))
		for _, f := range view.Categorical {
			fmt.Fprintf(w, "%-28s  %-26s  %s\n", f.Name, strings.Join(f.Categories, " | "), f.Description)
		}

		fmt.Fprintln(w)
		fmt.Fprintf(w, "Encoded columns (%d)\n", len(view.Columns))
		fmt.Fprintln(w, strings.Repeat("─", 78))
		for i, c := range view.Columns {
			fmt.Fprintf(w, "%2d  %s\n", i, c)
		}

		fmt.Fprintln(w)
		fmt.Fprintf(w, "Maximum indicator score: %d\n", view.MaxScore)
		return nil
	},
}

func init() {
	schemaCmd.Flags().Bool("json", false, "Print the schema as JSON")
}
