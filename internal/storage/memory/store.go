// Package memory is an in-process Store with the same key and foreign key
// rules as the MySQL schema. Used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"rentals/internal/domain"
)

// access runs fn against some state: the committed one or a transaction's.
type access interface {
	read(ctx context.Context, fn func(*state) error) error
	write(ctx context.Context, fn func(*state) error) error
}

// Store serializes writers with a one-slot semaphore. Each write, and each
// transaction, works on a copy that replaces the committed state on success.
type Store struct {
	writer *semaphore.Weighted
	mu     sync.RWMutex
	st     *state
}

var _ domain.Store = (*Store)(nil)

func New() *Store {
	return &Store{writer: semaphore.NewWeighted(1), st: newState()}
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) write(ctx context.Context, fn func(*state) error) error {
	return s.apply(ctx, domain.TxOptions{}, func(_ context.Context, st *state) error { return fn(st) })
}

func (s *Store) RunTransaction(ctx context.Context, opts domain.TxOptions, fn func(ctx context.Context, tx domain.Repos) error) error {
	return s.apply(ctx, opts, func(ctx context.Context, st *state) error {
		return fn(ctx, repos{a: txAccess{st: st}})
	})
}

func (s *Store) apply(ctx context.Context, opts domain.TxOptions, fn func(context.Context, *state) error) error {
	waitCtx, cancelWait := withBudget(ctx, opts.MaxWait)
	err := s.writer.Acquire(waitCtx, 1)
	cancelWait()
	if err != nil {
		if ctx.Err() == nil {
			return errors.Wrapf(domain.ErrTxTimeout, "waited %s for the writer", opts.MaxWait)
		}
		return err
	}
	defer s.writer.Release(1)

	runCtx, cancel := withBudget(ctx, opts.Timeout)
	defer cancel()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	err = fn(runCtx, work)
	if err == nil {
		err = runCtx.Err()
	}
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s: %w", domain.ErrTxTimeout, opts.Timeout, err)
		}
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// txAccess is bound to one transaction's working copy.
type txAccess struct{ st *state }

func (t txAccess) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.st)
}

func (t txAccess) write(ctx context.Context, fn func(*state) error) error {
	return t.read(ctx, fn)
}

// Counts reports committed rows per table.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"users":        s.st.users.count(),
		"owners":       s.st.owners.count(),
		"guests":       s.st.guests.count(),
		"properties":   s.st.properties.count(),
		"photos":       s.st.photos.count(),
		"reservations": s.st.reservations.count(),
		"reviews":      s.st.reviews.count(),
		"payments":     s.st.payments.count(),
	}
}

func (s *Store) Users() domain.UserRepository               { return userRepo{s} }
func (s *Store) Owners() domain.OwnerRepository             { return ownerRepo{s} }
func (s *Store) Guests() domain.GuestRepository             { return guestRepo{s} }
func (s *Store) Properties() domain.PropertyRepository      { return propertyRepo{s} }
func (s *Store) Photos() domain.PhotoRepository             { return photoRepo{s} }
func (s *Store) Reservations() domain.ReservationRepository { return reservationRepo{s} }
func (s *Store) Reviews() domain.ReviewRepository           { return reviewRepo{s} }
func (s *Store) Payments() domain.PaymentRepository         { return paymentRepo{s} }

type repos struct{ a access }

func (r repos) Users() domain.UserRepository               { return userRepo{r.a} }
func (r repos) Owners() domain.OwnerRepository             { return ownerRepo{r.a} }
func (r repos) Guests() domain.GuestRepository             { return guestRepo{r.a} }
func (r repos) Properties() domain.PropertyRepository      { return propertyRepo{r.a} }
func (r repos) Photos() domain.PhotoRepository             { return photoRepo{r.a} }
func (r repos) Reservations() domain.ReservationRepository { return reservationRepo{r.a} }
func (r repos) Reviews() domain.ReviewRepository           { return reviewRepo{r.a} }
func (r repos) Payments() domain.PaymentRepository         { return paymentRepo{r.a} }
