package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/report"
)

type encodedColumn struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the model input vector for a record",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(settings)
		if err != nil {
			return err
		}
		record, err := readRecord(cmd, svc.Schema())
		if err != nil {
			return err
		}
		vec, err := svc.Encode(record)
		if err != nil {
			return err
		}

		cols := svc.Encoder().Columns()
		out := make([]encodedColumn, len(cols))
		for i, c := range cols {
			out[i] = encodedColumn{Column: c, Value: vec.At(i)}
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return report.JSON(cmd.OutOrStdout(), out)
		}
		w := cmd.OutOrStdout()
		for i, c := range out {
			fmt.Fprintf(w, "%2d  %-40s  %9.4f\n", i, c.Column, c.Value)
		}
		return nil
	},
}

func init() {
	addRecordFlags(encodeCmd, features.DefaultSchema())
	encodeCmd.Flags().Bool("json", false, "Print the vector as JSON")
}
