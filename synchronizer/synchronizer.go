// Package synchronizer runs one update of the local candidate snapshot:
// fetch, load the previous snapshot, diff the region keys, save, report.
package synchronizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kouki023/situation-in-the-electoral-district/fetch"
	"github.com/kouki023/situation-in-the-electoral-district/snapshot"
)

// Fetcher retrieves the current dataset.
type Fetcher interface {
	Fetch(ctx context.Context) (*fetch.Result, error)
}

// Store loads and replaces the persisted snapshot.
type Store interface {
	Load() (*snapshot.Snapshot, error)
	Save(*snapshot.Snapshot) error
	Path() string
}

// Notifier is told about successful runs that changed the region key set.
type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// Recorder observes every run, successful or not.
type Recorder interface {
	Observe(r Report)
}

// Report describes one run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Path     string
	Keys     int // region keys in the fetched snapshot
	Added    []string
	Removed  []string
	Err      error
	Kind     fetch.Kind // meaningful only when Err != nil
}

// Success reports whether the run replaced the snapshot.
func (r Report) Success() bool { return r.Err == nil }

// Changed reports whether any region key was added or removed.
func (r Report) Changed() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// Synchronizer wires a Fetcher to a Store.
type Synchronizer struct {
	fetcher  Fetcher
	store    Store
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithNotifier sets a change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Synchronizer) { s.notifier = n }
}

// WithRecorder sets a run recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Synchronizer) { s.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Synchronizer) { s.newID = gen }
}

// New creates a Synchronizer.
func New(f Fetcher, st Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fetcher: f,
		store:   st,
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run performs one update and reports whether it succeeded. Failures are
// logged with their category and never returned.
func (s *Synchronizer) Run(ctx context.Context) bool {
	r := s.Sync(ctx)
	if r.Err != nil {
		s.logger.Error(fmt.Sprintf("%s: %v", r.Kind, r.Err), "run_id", r.RunID, "category", r.Kind.String())
		return false
	}
	return true
}

// Sync performs one update and returns its report. The snapshot file is
// written only after the fetch and the load of the previous snapshot both
// succeeded.
func (s *Synchronizer) Sync(ctx context.Context) Report {
	r := Report{RunID: s.newID(), Started: s.now(), Path: s.store.Path()}
	log := s.logger.With("run_id", r.RunID)

	err := s.sync(ctx, log, &r)
	r.Duration = s.now().Sub(r.Started)
	if err != nil {
		r.Err = err
		r.Kind = fetch.KindOf(err)
	}

	if s.recorder != nil {
		s.recorder.Observe(r)
	}
	if err == nil && r.Changed() && s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, r); nerr != nil {
			log.Warn("change notification failed", "error", nerr)
		}
	}
	return r
}

func (s *Synchronizer) sync(ctx context.Context, log *slog.Logger, r *Report) error {
	res, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	next := res.Snapshot
	if next == nil {
		next = snapshot.New()
	}
	r.Keys = next.Len()

	prev, err := s.store.Load()
	if err != nil {
		return err
	}

	changes := snapshot.Diff(prev, next)
	r.Added = changes.Added
	r.Removed = changes.Removed
	if len(changes.Added) > 0 {
		log.Info("regions added", "regions", strings.Join(changes.Added, ", "))
	}
	if len(changes.Removed) > 0 {
		log.Info("regions removed", "regions", strings.Join(changes.Removed, ", "))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Save(next); err != nil {
		return err
	}
	log.Info("snapshot saved", "path", r.Path)
	log.Info("candidate data update complete", "regions", r.Keys)
	return nil
}
