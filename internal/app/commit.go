package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rentals/internal/domain"
)

var ErrCommitFailed = errors.New("commit failed")

// Commit steps, in write order.
const (
	StepUsers        = "users"
	StepOwners       = "owners"
	StepOwnerResolve = "owners.resolve"
	StepGuests       = "guests"
	StepProperties   = "properties"
	StepPhotos       = "photos"
	StepReservations = "reservations"
	StepReviews      = "reviews"
	StepPayments     = "payments"
	StepTransaction  = "transaction"
)

// CommitError names the step that failed. It matches ErrCommitFailed and
// unwraps to the store error.
type CommitError struct {
	Step string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed at step %s: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool { return target == ErrCommitFailed }

// stepError tags an error inside the transaction body with its step.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

type CommitStats struct {
	Inserted Counts    `json:"inserted"`
	Owners   int       `json:"owners_resolved"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RowDropped(entity, reason string)
	Staged(entity string, n int64)
	StepDone(step string, inserted int64, d time.Duration)
	RunFinished(result string)
}

type nopRecorder struct{}

func (nopRecorder) RowDropped(string, string)             {}
func (nopRecorder) Staged(string, int64)                  {}
func (nopRecorder) StepDone(string, int64, time.Duration) {}
func (nopRecorder) RunFinished(string)                    {}

// Committer writes a StagedGraph in dependency order inside one transaction.
type Committer struct {
	store domain.Store
	opts  domain.TxOptions
	rec   Recorder
	log   zerolog.Logger
}

func NewCommitter(s domain.Store, opts domain.TxOptions, rec Recorder, l zerolog.Logger) *Committer {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Committer{store: s, opts: opts, rec: rec, log: l}
}

// Commit persists g. On error nothing is written and the returned error is a
// *CommitError.
func (c *Committer) Commit(ctx context.Context, g *StagedGraph) (CommitStats, error) {
	var stats CommitStats
	err := c.store.RunTransaction(ctx, c.opts, func(ctx context.Context, tx domain.Repos) error {
		stats = CommitStats{Inserted: Counts{}}
		return c.write(ctx, tx, g, &stats)
	})
	if err != nil {
		step := StepTransaction
		var se *stepError
		if errors.As(err, &se) {
			step = se.step
		}
		c.log.Error().Err(err).Str("step", step).Msg("transaction rolled back")
		return CommitStats{}, &CommitError{Step: step, Err: err}
	}
	for _, w := range stats.Warnings {
		c.rec.RowDropped(w.Entity, w.Reason)
	}
	c.log.Info().Interface("inserted", stats.Inserted).Msg("transaction committed")
	return stats, nil
}

func (c *Committer) step(name string, stats *CommitStats, fn func() (int64, error)) error {
	start := time.Now()
	n, err := fn()
	if err != nil {
		return &stepError{step: name, err: err}
	}
	stats.Inserted[name] = n
	c.rec.StepDone(name, n, time.Since(start))
	c.log.Info().Str("step", name).Int64("count", n).Msg("step done")
	return nil
}

func (c *Committer) warn(stats *CommitStats, w Warning) {
	stats.Warnings = append(stats.Warnings, w)
	c.log.Warn().Str("entity", w.Entity).Str("id", w.ID).Str("ref", w.Ref).Str("reason", w.Reason).Msg("dropped at commit")
}

func (c *Committer) write(ctx context.Context, tx domain.Repos, g *StagedGraph, stats *CommitStats) error {
	if g.Users.Len() > 0 {
		if err := c.step(StepUsers, stats, func() (int64, error) {
			return tx.Users().CreateMany(ctx, g.Users.Values())
		}); err != nil {
			return err
		}
	}

	ownerIDs := map[string]int64{}
	if g.Owners.Len() > 0 {
		userIDs := g.Owners.Keys()
		if err := c.step(StepOwners, stats, func() (int64, error) {
			return tx.Owners().CreateMany(ctx, userIDs)
		}); err != nil {
			return err
		}
		owners, err := tx.Owners().FindByUserIDs(ctx, userIDs)
		if err != nil {
			return &stepError{step: StepOwnerResolve, err: err}
		}
		if len(owners) == 0 {
			return &stepError{step: StepOwnerResolve, err: domain.ErrOwnerResolution}
		}
		for _, o := range owners {
			ownerIDs[o.UserID] = o.ID
		}
		stats.Owners = len(ownerIDs)
		c.log.Info().Int("owners", len(ownerIDs)).Msg("owner ids resolved")
	}

	if g.Guests.Len() > 0 {
		if err := c.step(StepGuests, stats, func() (int64, error) {
			return tx.Guests().CreateMany(ctx, g.Guests.Keys())
		}); err != nil {
			return err
		}
	}

	props := make(map[string]bool, g.Properties.Len())
	if g.Properties.Len() > 0 {
		batch := make([]domain.Property, 0, g.Properties.Len())
		for _, sp := range g.Properties.Values() {
			id, ok := ownerIDs[sp.OwnerUserID]
			if !ok {
				c.warn(stats, Warning{Entity: EntityProperty, ID: sp.PropertyID, Ref: sp.OwnerUserID, Reason: ReasonOwnerUnresolved})
				continue
			}
			p := sp.Property
			p.OwnerID = id
			batch = append(batch, p)
			props[p.PropertyID] = true
		}
		if len(batch) > 0 {
			if err := c.step(StepProperties, stats, func() (int64, error) {
				return tx.Properties().CreateMany(ctx, batch)
			}); err != nil {
				return err
			}
		}
	}

	photos := keep(g.Photos.Values(), func(p domain.Photo) (bool, Warning) {
		return props[p.PropertyID], Warning{Entity: EntityPhoto, ID: p.PhotoID, Ref: p.PropertyID, Reason: ReasonPropertyNotCommitted}
	}, c, stats)
	if len(photos) > 0 {
		if err := c.step(StepPhotos, stats, func() (int64, error) {
			return tx.Photos().CreateMany(ctx, photos)
		}); err != nil {
			return err
		}
	}

	reservations := keep(g.Reservations.Values(), func(r domain.Reservation) (bool, Warning) {
		return props[r.PropertyID], Warning{Entity: EntityReservation, ID: r.ReservationID, Ref: r.PropertyID, Reason: ReasonPropertyNotCommitted}
	}, c, stats)
	kept := make(map[string]bool, len(reservations))
	for _, r := range reservations {
		kept[r.ReservationID] = true
	}
	if len(reservations) > 0 {
		if err := c.step(StepReservations, stats, func() (int64, error) {
			return tx.Reservations().CreateMany(ctx, reservations)
		}); err != nil {
			return err
		}
	}

	reviews := keep(g.Reviews.Values(), func(r domain.Review) (bool, Warning) {
		return props[r.PropertyID], Warning{Entity: EntityReview, ID: r.ReviewID, Ref: r.PropertyID, Reason: ReasonPropertyNotCommitted}
	}, c, stats)
	if len(reviews) > 0 {
		if err := c.step(StepReviews, stats, func() (int64, error) {
			return tx.Reviews().CreateMany(ctx, reviews)
		}); err != nil {
			return err
		}
	}

	payments := keep(g.Payments.Values(), func(p domain.Payment) (bool, Warning) {
		return kept[p.ReservationID], Warning{Entity: EntityPayment, ID: p.PaymentID, Ref: p.ReservationID, Reason: ReasonReservationNotCommitted}
	}, c, stats)
	if len(payments) > 0 {
		if err := c.step(StepPayments, stats, func() (int64, error) {
			return tx.Payments().CreateMany(ctx, payments)
		}); err != nil {
			return err
		}
	}
	return nil
}

// keep filters staged dependents whose parent did not make it into the batch.
func keep[T any](in []T, ok func(T) (bool, Warning), c *Committer, stats *CommitStats) []T {
	out := in[:0]
	for _, v := range in {
		if yes, w := ok(v); yes {
			out = append(out, v)
		} else {
			c.warn(stats, w)
		}
	}
	return out
}
