package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rentals/internal/domain"
)

// Load phases.
const (
	PhaseRead   = "read"
	PhaseLock   = "lock"
	PhaseCommit = "commit"
)

// Run outcomes.
const (
	StatusApplied = "applied"
	StatusEmpty   = "empty"
	StatusDryRun  = "dry_run"
	StatusFailed  = "failed"
)

// PhaseError reports which phase of a load aborted the run.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string { return fmt.Sprintf("%s phase: %v", e.Phase, e.Err) }
func (e *PhaseError) Unwrap() error { return e.Err }

type LoadReport struct {
	RunID      uuid.UUID `json:"run_id"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Staged     Counts    `json:"staged"`
	Committed  Counts    `json:"committed,omitempty"`
	Warnings   []Warning `json:"warnings,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type LoadOptions struct {
	Tx       domain.TxOptions
	Cache    domain.Cache  // optional
	Locker   domain.Locker // optional
	LockKey  string
	Recorder Recorder
	// DryRun only labels the report; the caller picks a throwaway store.
	DryRun bool
}

// LoadService runs one whole-file load: read, reconcile, commit.
type LoadService struct {
	source domain.RowSource
	store  domain.Store
	opts   LoadOptions
	log    zerolog.Logger
}

func NewLoadService(src domain.RowSource, store domain.Store, opts LoadOptions, l zerolog.Logger) *LoadService {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.LockKey == "" {
		opts.LockKey = "rentals:load:lock"
	}
	return &LoadService{
		source: src,
		store:  store,
		opts:   opts,
		log:    l,
	}
}

func (s *LoadService) LoadFromSource(ctx context.Context, path string) (LoadReport, error) {
	rep := LoadReport{RunID: uuid.New(), Source: path, StartedAt: time.Now().UTC()}
	log := s.log.With().Str("run_id", rep.RunID.String()).Str("source", path).Logger()
	rec := s.opts.Recorder

	rep, err := s.run(ctx, rep, log)
	rep.FinishedAt = time.Now().UTC()
	if err != nil {
		rep.Status = StatusFailed
		rec.RunFinished(StatusFailed)
		log.Error().Err(err).Msg("load failed")
		return rep, err
	}
	rec.RunFinished(rep.Status)
	log.Info().
		Str("status", rep.Status).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Int("warnings", len(rep.Warnings)).
		Msg("load finished")
	return rep, nil
}

func (s *LoadService) run(ctx context.Context, rep LoadReport, log zerolog.Logger) (LoadReport, error) {
	rec := s.opts.Recorder
	log.Info().Msg("load starting")

	rows, err := s.source.ReadRows(ctx, rep.Source)
	if err != nil {
		return rep, &PhaseError{Phase: PhaseRead, Err: err}
	}
	rep.Rows = len(rows)

	g := NewReconciler(log).Reconcile(rows)
	rep.Staged = g.Counts()
	rep.Warnings = append(rep.Warnings, g.Warnings...)
	for _, w := range g.Warnings {
		rec.RowDropped(w.Entity, w.Reason)
	}
	for entity, n := range rep.Staged {
		rec.Staged(entity, n)
	}

	if g.Empty() {
		log.Info().Msg("nothing to load")
		rep.Status = StatusEmpty
		return rep, nil
	}

	if s.opts.Locker != nil {
		release, err := s.opts.Locker.Acquire(ctx, s.opts.LockKey, s.lockTTL())
		if err != nil {
			return rep, &PhaseError{Phase: PhaseLock, Err: err}
		}
		defer func() {
			// the run's ctx may already be gone
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("lock release failed")
			}
		}()
	}

	stats, err := NewCommitter(s.store, s.opts.Tx, rec, log).Commit(ctx, g)
	if err != nil {
		return rep, &PhaseError{Phase: PhaseCommit, Err: err}
	}
	rep.Committed = stats.Inserted
	rep.Warnings = append(rep.Warnings, stats.Warnings...)
	rep.Status = StatusApplied
	if s.opts.DryRun {
		rep.Status = StatusDryRun
	}

	s.invalidate(ctx, g, log)
	return rep, nil
}

func (s *LoadService) lockTTL() time.Duration {
	ttl := s.opts.Tx.MaxWait + s.opts.Tx.Timeout
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}

// invalidate evicts read caches touched by the load. Failures are logged only.
func (s *LoadService) invalidate(ctx context.Context, g *StagedGraph, log zerolog.Logger) {
	if s.opts.Cache == nil {
		return
	}
	keys := make([]string, 0, 2*g.Properties.Len()+g.Owners.Len())
	for _, id := range g.Properties.Keys() {
		keys = append(keys, propertyKey(id), reviewsKey(id))
	}
	for _, uid := range g.Owners.Keys() {
		keys = append(keys, ownerPropertiesKey(uid))
	}
	var failed int
	for _, k := range keys {
		if err := s.opts.Cache.Del(ctx, k); err != nil {
			failed++
			if !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Str("key", k).Msg("cache evict failed")
			}
		}
	}
	log.Debug().Int("keys", len(keys)).Int("failed", failed).Msg("caches invalidated")
}
