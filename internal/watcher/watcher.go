// Package watcher reports when a complete dataset (a vector file plus its
// metadata file) lands in a drop directory.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before a dataset is reported.
const DefaultDebounce = 500 * time.Millisecond

// DatasetEvent names a dataset that is ready to ingest.
type DatasetEvent struct {
	VectorsPath  string
	MetadataPath string
	DetectedAt   time.Time
}

// Options configures a Watcher.
type Options struct {
	VectorsFile  string
	MetadataFile string
	Debounce     time.Duration
	Logger       *slog.Logger
}

// Option configures a Watcher.
type Option func(*Options)

// WithFiles sets the vector and metadata file names watched for.
func WithFiles(vectors, metadata string) Option {
	return func(o *Options) {
		o.VectorsFile = vectors
		o.MetadataFile = metadata
	}
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(o *Options) { o.Debounce = d }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Watcher wraps an fsnotify watcher for one drop directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options
}

// New creates a Watcher.
func New(optFns ...Option) (*Watcher, error) {
	opts := Options{
		VectorsFile:  "vectors.csv",
		MetadataFile: "metadata.csv",
		Debounce:     DefaultDebounce,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.VectorsFile == "" || opts.MetadataFile == "" {
		return nil, errors.New("watcher: vector and metadata file names are required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w, opts: opts}, nil
}

// Watch starts monitoring dir. One event is emitted per burst of writes to
// either file, and only while both files exist. The channel closes when ctx
// is done or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan DatasetEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	vectors := filepath.Join(dir, w.opts.VectorsFile)
	metadata := filepath.Join(dir, w.opts.MetadataFile)
	events := make(chan DatasetEvent, 8)

	go func() {
		defer close(events)

		timer := time.NewTimer(w.opts.Debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}
				timer.Reset(w.opts.Debounce)
			case <-timer.C:
				if !exists(vectors) || !exists(metadata) {
					continue
				}
				select {
				case events <- DatasetEvent{VectorsPath: vectors, MetadataPath: metadata, DetectedAt: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				if w.opts.Logger != nil {
					w.opts.Logger.LogAttrs(ctx, slog.LevelWarn, "watch error",
						slog.String("dir", dir),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.opts.VectorsFile || name == w.opts.MetadataFile
}

func exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
