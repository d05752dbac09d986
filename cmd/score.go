package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/heuristic"
	"github.com/abhisek/atrisk/internal/report"
)

type scoreView struct {
	Score    int             `json:"score"`
	MaxScore int             `json:"max_score"`
	Hits     []heuristic.Hit `json:"hits"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the indicator score breakdown without running a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(settings)
		if err != nil {
			return err
		}
		record, err := readRecord(cmd, svc.Schema())
		if err != nil {
			return err
		}
		score, hits, err := svc.Explain(record)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), scoreView{Score: score, MaxScore: svc.MaxScore(), Hits: hits})
		}
		report.New(cmd.OutOrStdout(), plainOutput(cmd)).Breakdown(score, svc.MaxScore(), hits)
		return nil
	},
}

func init() {
	addRecordFlags(scoreCmd, features.DefaultSchema())
	scoreCmd.Flags().Bool("json", false, "Print the breakdown as JSON")
}
