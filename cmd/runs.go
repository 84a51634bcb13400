package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingested tool runs and their row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openWarehouse(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs ingested")
			return nil
		}

		for _, run := range runs {
			counts, err := db.RunRowCounts(cmd.Context(), run.RunKey)
			if err != nil {
				return err
			}
			var total int64
			for _, c := range counts {
				total += c
			}
			fmt.Printf("%s %s\n", run.Pretty().String(), color.HiBlackString("rows=%d", total))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
