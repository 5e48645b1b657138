package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/resource"
)

// Store holds the current Snapshot and serializes rebuilds.
type Store struct {
	opts    Options
	builder *Builder
	rc      *resource.Controller

	current  atomic.Pointer[Snapshot]
	building atomic.Bool // single-flight, whatever the controller allows

	mu      sync.Mutex // guards version and history
	version uint64
	history []*Snapshot
}

// New creates an empty store.
func New(optFns ...Option) *Store {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	rc := opts.Controller
	if rc == nil {
		rc = resource.NewController(resource.Config{MaxConcurrentBuilds: 1})
	}
	return &Store{
		opts:    opts,
		builder: &Builder{opts: opts},
		rc:      rc,
	}
}

// Current returns the published snapshot. It never blocks.
func (s *Store) Current() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Version returns the version of the current snapshot (0 if none).
func (s *Store) Version() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.Version
	}
	return 0
}

// History returns the retained snapshots, newest first.
func (s *Store) History() []*Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.history)
	slices.Reverse(out)
	return out
}

func (s *Store) busy(ctx context.Context) error {
	if s.opts.Logger != nil {
		s.opts.Logger.LogAttrs(ctx, slog.LevelInfo, "snapshot build rejected",
			slog.Uint64("current_version", s.Version()),
		)
	}
	return &BuildBusyError{Current: s.Version()}
}

// Rebuild fits a new snapshot from ds and publishes it.
//
// At most one build runs per store. It fails with a *BuildBusyError if another
// build is in flight or the controller has no free build slot, with
// a *BuildTimeoutError if the configured timeout elapses, and with a
// *StageError if any stage fails. On failure the current snapshot is left
// untouched.
func (s *Store) Rebuild(ctx context.Context, ds *dataset.Dataset) (*Snapshot, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}

	// --- Phase 1: Admission ---
	if !s.building.CompareAndSwap(false, true) {
		return nil, s.busy(ctx)
	}
	defer s.building.Store(false)

	// The controller may be shared by several stores.
	if !s.rc.TryAcquireBuild() {
		return nil, s.busy(ctx)
	}
	defer s.rc.ReleaseBuild()

	buildCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	mem := s.builder.estimateBytes(ds)
	if err := s.rc.AcquireMemory(buildCtx, mem); err != nil {
		if errors.Is(err, resource.ErrBackpressure) {
			return nil, fmt.Errorf("snapshot: reserve %d bytes for %d rows: %w", mem, ds.Len(), err)
		}
		return nil, s.buildError(ctx, buildCtx, err)
	}
	defer s.rc.ReleaseMemory(mem)

	// --- Phase 2: Build (off to the side) ---
	snap, err := s.builder.Build(buildCtx, ds)
	if err != nil {
		return nil, s.buildError(ctx, buildCtx, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	// --- Phase 3: Publish ---
	s.mu.Lock()
	s.version++
	snap.Version = s.version
	s.current.Store(snap)
	if s.opts.History > 0 {
		s.history = append(s.history, snap)
		if len(s.history) > s.opts.History {
			s.history = slices.Delete(s.history, 0, len(s.history)-s.opts.History)
		}
	}
	s.mu.Unlock()

	if s.opts.Logger != nil {
		s.opts.Logger.LogAttrs(ctx, slog.LevelInfo, "snapshot published",
			slog.Uint64("version", snap.Version),
			slog.String("build_id", snap.BuildID.String()),
			slog.Int("rows", snap.Len()),
			slog.Int("flagged", snap.Outliers.FlaggedCount()),
			slog.Duration("duration", snap.Duration),
		)
	}
	if s.opts.OnPublish != nil {
		s.opts.OnPublish(snap)
	}
	return snap, nil
}

// buildError converts an expired build deadline into a *BuildTimeoutError.
// Cancellation by the caller is returned as is.
func (s *Store) buildError(ctx, buildCtx context.Context, err error) error {
	if ctx.Err() == nil && errors.Is(buildCtx.Err(), context.DeadlineExceeded) {
		te := &BuildTimeoutError{Timeout: s.opts.Timeout}
		var se *StageError
		if errors.As(err, &se) {
			te.Stage = se.Stage
		}
		if s.opts.Logger != nil {
			s.opts.Logger.LogAttrs(ctx, slog.LevelWarn, "snapshot build timed out",
				slog.Duration("timeout", s.opts.Timeout),
				slog.String("stage", string(te.Stage)),
			)
		}
		return te
	}
	return err
}
