package commands

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/api"
	"github.com/hupe1980/vecsight/internal/tabular"
	"github.com/hupe1980/vecsight/novelty"
)

// datasetTag derives a batch tag from a file name.
func datasetTag(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readBatch(path, tag string) (novelty.Batch, error) {
	ids, vecs, err := tabular.ReadVectors(path)
	if err != nil {
		return novelty.Batch{}, err
	}
	items := make([]novelty.Item, len(vecs))
	for i := range vecs {
		items[i] = novelty.Item{ID: ids[i], Vector: vecs[i], Confidence: math.NaN()}
	}
	return novelty.Batch{Dataset: tag, Items: items}, nil
}

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	var (
		name   string
		tags   []string
		report string
	)

	cmd := &cobra.Command{
		Use:   "score FILE...",
		Short: "Score vector files against a saved reference model",
		Long: `Load the saved reference model and score every row of each file. Each file
is one batch, tagged with --dataset or with its base name.

Examples:
  vecsight score new-week.csv
  vecsight score --dataset before --dataset after a.csv b.csv
  vecsight score --report week batch.tsv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(tags) > 0 && len(tags) != len(args) {
				return fmt.Errorf("got %d --dataset tags for %d files", len(tags), len(args))
			}
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
			if _, err := e.LoadReference(ctx, name); err != nil {
				return err
			}

			batches := make([]novelty.Batch, len(args))
			for i, path := range args {
				tag := datasetTag(path)
				if len(tags) > 0 {
					tag = tags[i]
				}
				if batches[i], err = readBatch(path, tag); err != nil {
					return err
				}
			}

			r, err := e.Score(ctx, batches...)
			if err != nil {
				return err
			}

			switch report {
			case "":
				return writeJSON(cmd.OutOrStdout(), e.Codec(), api.NewScoreResponse(r, e.Classifier()))
			case "markets":
				return writeJSON(cmd.OutOrStdout(), e.Codec(), api.NewMarketsResponse(e.MarketReport(aggregate.FromReport(r))))
			default:
				b, err := aggregate.ParseBucket(report)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), e.Codec(), api.NewTimeResponse(b, e.TimeReport(aggregate.FromReport(r), b)))
			}
		},
	}

	cmd.Flags().StringVar(&name, "model", "", "Blob name of the reference model (default $VECSIGHT_REFERENCE_NAME)")
	cmd.Flags().StringSliceVar(&tags, "dataset", nil, "Dataset tag per file, in file order")
	cmd.Flags().StringVar(&report, "report", "", "Print a roll-up instead of records: markets, day, week or month")

	return cmd
}
