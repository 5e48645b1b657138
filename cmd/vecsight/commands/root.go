// Package commands implements the vecsight command line.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecsight/internal/config"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vecsight",
		Short: "Embedding snapshots, outlier surfacing and novelty scoring",
		Long: `vecsight projects utterance embeddings into 2-D or 3-D snapshots, surfaces
outliers per category, and scores new utterances against a reference corpus.

Configuration is read from VECSIGHT_* environment variables and an optional
.env file in the working directory.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		NewServeCmd(),
		NewBuildCmd(),
		NewTrainCmd(),
		NewScoreCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}
