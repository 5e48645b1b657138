package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecsight"
	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/api"
	"github.com/hupe1980/vecsight/blobstore"
	"github.com/hupe1980/vecsight/internal/config"
	"github.com/hupe1980/vecsight/internal/tabular"
	"github.com/hupe1980/vecsight/internal/watcher"
	"github.com/hupe1980/vecsight/snapshot"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and rebuild on dataset arrival",
		Long: `Start the HTTP API on $VECSIGHT_ADDR. When $VECSIGHT_WATCH_DIR is set, a new
snapshot is built whenever both $VECSIGHT_VECTORS_FILE and
$VECSIGHT_METADATA_FILE are written there. A saved reference model named
$VECSIGHT_REFERENCE_NAME is loaded at startup when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(cfg, cmd.ErrOrStderr())
			e, err := newEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, e, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, e *vecsight.Engine, logger *vecsight.Logger) error {
	if _, err := e.LoadReference(ctx, cfg.ReferenceName); err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			return err
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "no saved reference model", slog.String("name", cfg.ReferenceName))
	}

	if cfg.WatchDir != "" {
		w, err := watcher.New(
			watcher.WithFiles(cfg.VectorsFile, cfg.MetadataFile),
			watcher.WithLogger(logger.Logger),
		)
		if err != nil {
			return err
		}
		defer w.Stop()

		events, err := w.Watch(ctx, cfg.WatchDir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.WatchDir, err)
		}
		go ingestDatasets(ctx, e, logger, events,
			filepath.Join(cfg.WatchDir, cfg.VectorsFile),
			filepath.Join(cfg.WatchDir, cfg.MetadataFile),
		)
	}

	bucket, err := aggregate.ParseBucket(cfg.TimeBucket)
	if err != nil {
		return err
	}
	handler := api.NewHandler(e,
		api.WithReferenceName(cfg.ReferenceName),
		api.WithDefaultBucket(bucket),
		api.WithLogger(logger.Logger),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogAttrs(ctx, slog.LevelInfo, "listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ingestDatasets builds from a pair already sitting in the watch directory,
// then from every arrival until events closes. It runs beside the HTTP
// server, which answers /healthz while the first build is in progress.
func ingestDatasets(ctx context.Context, e *vecsight.Engine, logger *vecsight.Logger, events <-chan watcher.DatasetEvent, vectors, metadata string) {
	if fileExists(vectors) && fileExists(metadata) {
		rebuildFromFiles(ctx, e, logger, vectors, metadata)
	}
	for ev := range events {
		rebuildFromFiles(ctx, e, logger, ev.VectorsPath, ev.MetadataPath)
	}
}

// rebuildFromFiles ingests one dataset arrival. Failures are logged; the
// previously published snapshot stays current.
func rebuildFromFiles(ctx context.Context, e *vecsight.Engine, logger *vecsight.Logger, vectorsPath, metadataPath string) *snapshot.Snapshot {
	snap, err := triggerFiles(ctx, e, vectorsPath, metadataPath)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "dataset rebuild failed",
			slog.String("vectors", vectorsPath),
			slog.String("metadata", metadataPath),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return snap
}

func triggerFiles(ctx context.Context, e *vecsight.Engine, vectorsPath, metadataPath string) (*snapshot.Snapshot, error) {
	vecs, err := tabular.ReadFile(vectorsPath)
	if err != nil {
		return nil, err
	}
	meta, err := tabular.ReadFile(metadataPath)
	if err != nil {
		return nil, err
	}
	return e.Trigger(ctx, vecs, meta)
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
