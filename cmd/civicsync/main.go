// Command civicsync loads civic open data (officials, municipal officers,
// communes and votes) into a local SQLite store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkoziy/civic/exporter/internal/config"
	"github.com/mkoziy/civic/exporter/internal/logging"
)

var Version = "dev"

// app carries state shared by subcommands once the root command has loaded config.
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "civicsync",
		Short:         "Synchronize civic open data into SQLite",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			logging.Init(cfg.Logging)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to civicsync.yaml (defaults to $CIVIC_CONFIG)")

	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(syncCmd(a))
	rootCmd.AddCommand(jobsCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	return rootCmd
}
