package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/impala-radio/impala/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "impala",
	Short: "Impala music catalog server",
	Long: `Impala serves the station's music catalog: stacks, formats, holdings,
tracks and their metadata, over a JSON REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
