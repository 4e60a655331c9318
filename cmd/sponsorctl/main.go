package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sponsorwall/backend/internal/config"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "sponsorctl",
	Short:         "Sponsor wall administration",
	Long:          `sponsorctl runs migrations, issues organizer tokens and repairs campaign state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sponsorctl %s (built %s)\n", version, buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(sponsorshipCmd)
	rootCmd.AddCommand(pricingCmd)
}

// loadConfig reads the environment the same way the API does.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		return cfg, zap.NewNop(), nil
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
