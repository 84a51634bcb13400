package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flanksource/scanhub/config"
	"github.com/flanksource/scanhub/internal/warehouse"
)

var (
	cfgFile string
	dbDir   string
)

var rootCmd = &cobra.Command{
	Use:   "scanhub",
	Short: "Load static-analysis tool envelopes into a shared warehouse",
	Long: `scanhub ingests the normalized output envelopes of static-analysis
tools and loads them into a relational warehouse under stable file and
directory identities, so findings from independent analyzers can be joined
and queried uniformly.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./scanhub.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbDir, "db-dir", "", "warehouse directory (default ~/.cache/scanhub)")

	_ = viper.BindPFlag("warehouse_dir", rootCmd.PersistentFlags().Lookup("db-dir"))
	viper.SetEnvPrefix("SCANHUB")
	viper.AutomaticEnv()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dir := viper.GetString("warehouse_dir"); dir != "" {
		cfg.WarehouseDir = dir
	}
	return cfg, nil
}

func openWarehouse(cfg *config.Config) (*warehouse.DB, error) {
	dir, err := cfg.WarehousePath()
	if err != nil {
		return nil, err
	}
	db, err := warehouse.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse at %s: %w", dir, err)
	}
	return db, nil
}
