package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete recorded predictions",
	Long:  "Deletes prediction history. LLM request events are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		yes, _ := cmd.Flags().GetBool("yes")
		if olderThan <= 0 && !yes {
			return fmt.Errorf("refusing to delete all predictions without --yes (or limit with --older-than)")
		}

		var before time.Time
		if olderThan > 0 {
			before = time.Now().Add(-olderThan)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.EventRepo().PurgePredictions(cmd.Context(), before)
		if err != nil {
			return fmt.Errorf("purge predictions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d prediction(s).\n", n)
		return nil
	},
}

func init() {
	resetCmd.Flags().Duration("older-than", 0, "Only delete predictions older than this (e.g. 720h)")
	resetCmd.Flags().BoolP("yes", "y", false, "Confirm deleting the whole history")
}
