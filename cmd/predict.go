package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/app"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/report"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict Pass or AtRisk for one student",
	Example: "  atrisk predict --hours-studied 12 --attendance-pct 70 --sleep-hours 6 --physical-activity 1 \\\n" +
		"    --previous-score 60 --tutoring-sessions 0 --parental-involvement Low --motivation-level Low \\\n" +
		"    --peer-influence Negative --internet-access No --extracurricular-activities No\n" +
		"  atrisk predict --input student.yaml --model logistic-regression --json",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		schema := features.DefaultSchema()

		record, err := readRecord(cmd, schema)
		if err != nil {
			return err
		}
		variant, err := modelFlag(cmd)
		if err != nil {
			return err
		}
		withCoach, _ := cmd.Flags().GetBool("coach")

		rt, err := buildApp(ctx, cmd, withCoach)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.app.Predict(ctx, app.Request{
			Record:  record,
			Variant: variant,
			Source:  app.SourceCLI,
			Coach:   withCoach,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), res)
		}
		if withCoach && !rt.app.CoachEnabled() {
			cmd.PrintErrln("No LLM provider configured; set ATRISK_LLM_PROVIDER or a provider API key for coaching notes.")
		}
		report.New(cmd.OutOrStdout(), plainOutput(cmd)).Prediction(res)
		return nil
	},
}

func init() {
	addRecordFlags(predictCmd, features.DefaultSchema())
	predictCmd.Flags().StringP("model", "m", "", "Model: random-forest (rf) or logistic-regression (lr)")
	predictCmd.Flags().Bool("json", false, "Print the result as JSON")
	predictCmd.Flags().Bool("coach", false, "Ask the configured LLM for a coaching note")
}
