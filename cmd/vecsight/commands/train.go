package commands

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecsight/api"
	"github.com/hupe1980/vecsight/internal/tabular"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	var (
		vectorsPath string
		name        string
		noSave      bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a novelty reference model from a corpus file",
		Long: `Fit the reference model on a corpus of embeddings and save it to the
configured blob store. Prints the saved manifest as JSON.

Examples:
  vecsight train --vectors corpus.csv
  vecsight train --vectors corpus.tsv --name faq-2024.vsm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if name == "" {
				name = cfg.ReferenceName
			}
			ctx := cmd.Context()
			e, err := newEngine(ctx, cfg, newLogger(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			_, corpus, err := tabular.ReadVectors(vectorsPath)
			if err != nil {
				return err
			}
			m, err := e.RetrainReference(ctx, corpus)
			if err != nil {
				return err
			}
			if noSave {
				return writeJSON(cmd.OutOrStdout(), e.Codec(), api.RetrainResponse{
					Points:       m.Len(),
					Dimension:    m.Dim(),
					K:            m.K(),
					Metric:       m.Metric().String(),
					Standardized: m.Standardized(),
				})
			}
			man, err := e.SaveReference(ctx, name)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e.Codec(), man)
		},
	}

	cmd.Flags().StringVar(&vectorsPath, "vectors", "", "Corpus file (.csv or .tsv)")
	cmd.Flags().StringVar(&name, "name", "", "Blob name of the saved model (default $VECSIGHT_REFERENCE_NAME)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Fit only; do not write the model")
	_ = cmd.MarkFlagRequired("vectors")

	return cmd
}
