package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flanksource/scanhub/adapters"
	"github.com/flanksource/scanhub/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <envelope.json>...",
	Short: "Ingest tool output envelopes into the warehouse",
	Long: `Runs each envelope through the ingestion pipeline: unwrap, resolve
against the run's layout snapshot, validate, deduplicate, persist. A fatal
error in one envelope (missing layout, quality gate rejection) aborts that
run with zero rows committed; other envelopes still proceed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		extraRules, err := cfg.ExtraRules()
		if err != nil {
			return err
		}
		table, err := adapters.NewTable(cfg.Enabled, extraRules)
		if err != nil {
			return err
		}
		db, err := openWarehouse(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		pipeline := ingest.New(db, table, ingest.WithExcludes(cfg.Excludes...))

		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read envelope %s: %w", path, err)
			}
			result, err := pipeline.Ingest(cmd.Context(), raw)
			if err != nil {
				failed++
				color.Red("%s: %v", path, err)
				continue
			}
			fmt.Println(result.Pretty().String())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d envelopes failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
