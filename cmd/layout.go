package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flanksource/scanhub/layout"
	"github.com/flanksource/scanhub/scanner"
)

var (
	layoutRepoID string
	layoutRunID  string
)

var layoutCmd = &cobra.Command{
	Use:   "layout <path>",
	Short: "Scan a working tree and store its layout snapshot",
	Long: `Walks the given directory, assigns stable identifiers to every file
and directory, and stores the snapshot for the (repository, run) scope.
Must run before any tool envelope for the same scope is ingested.`,
	Args: cobra.ExactArgs(1),
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

		root := args[0]
		entries, err := scanner.New(cfg.Excludes...).Walk(root)
		if err != nil {
			return err
		}

		store := layout.NewStore(db)
		if err := store.PutSnapshot(cmd.Context(), layoutRepoID, layoutRunID, entries); err != nil {
			return err
		}

		meta := scanner.ReadGitMetadata(root)
		line := fmt.Sprintf("stored %d layout entries for %s/%s", len(entries), layoutRepoID, layoutRunID)
		if meta.Commit != "" {
			line += fmt.Sprintf(" (%s@%.7s)", meta.Branch, meta.Commit)
		}
		color.Green(line)
		return nil
	},
}

func init() {
	layoutCmd.Flags().StringVar(&layoutRepoID, "repo-id", "", "repository identifier")
	layoutCmd.Flags().StringVar(&layoutRunID, "run-id", "", "collection run identifier")
	_ = layoutCmd.MarkFlagRequired("repo-id")
	_ = layoutCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(layoutCmd)
}
