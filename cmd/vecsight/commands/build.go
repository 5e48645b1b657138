package commands

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecsight/api"
	"github.com/hupe1980/vecsight/internal/tabular"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var (
		vectorsPath  string
		metadataPath string
		points       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build one snapshot from a vector file and a metadata file",
		Long: `Align a vector file with its metadata file, fit a snapshot and print its
summary as JSON.

Examples:
  vecsight build --vectors vectors.csv --metadata metadata.csv
  vecsight build --vectors v.tsv --metadata m.tsv --points`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := newEngine(ctx, cfg, newLogger(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			vecs, err := tabular.ReadFile(vectorsPath)
			if err != nil {
				return err
			}
			meta, err := tabular.ReadFile(metadataPath)
			if err != nil {
				return err
			}
			ds, err := e.Ingest(ctx, vecs, meta)
			if err != nil {
				return err
			}
			snap, err := e.Rebuild(ctx, ds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e.Codec(), api.NewSnapshotResponse(snap, points))
		},
	}

	cmd.Flags().StringVar(&vectorsPath, "vectors", "", "Vector file (.csv or .tsv)")
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Metadata file (.csv or .tsv)")
	cmd.Flags().BoolVar(&points, "points", false, "Include per-row coordinates")
	_ = cmd.MarkFlagRequired("vectors")
	_ = cmd.MarkFlagRequired("metadata")

	return cmd
}
