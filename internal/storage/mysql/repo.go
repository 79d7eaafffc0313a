package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"rentals/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// MySQL error numbers we classify.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
	errLockWaitTimeout = 1205
)

// wrap annotates err with msg and maps constraint and lock-wait errors to
// the domain sentinels.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry, errRowIsReferenced, errNoReferencedRow:
			return fmt.Errorf("%s: %w: %w", msg, domain.ErrConstraint, err)
		case errLockWaitTimeout:
			return fmt.Errorf("%s: %w: %w", msg, domain.ErrTxTimeout, err)
		}
	}
	return errors.Wrap(err, msg)
}

// insertMany runs prefix + tuples + skipDuplicates in batches and returns the
// number of rows actually inserted.
func insertMany[T any](ctx context.Context, db DBTX, prefix, tuple, key string, items []T, args func(T) []any) (int64, error) {
	var total int64
	for start := 0; start < len(items); start += maxBatch {
		end := min(start+maxBatch, len(items))
		chunk := items[start:end]

		values := make([]string, 0, len(chunk))
		params := make([]any, 0, len(chunk)*strings.Count(tuple, "?"))
		for _, it := range chunk {
			values = append(values, tuple)
			params = append(params, args(it)...)
		}
		q := prefix + strings.Join(values, ", ") + fmt.Sprintf(skipDuplicates, key)
		res, err := db.ExecContext(ctx, q, params...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

// Store is the MySQL implementation of domain.Store.
type Store struct {
	db *sql.DB
	repos
}

var _ domain.Store = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db, repos: repos{db: db}} }

// RunTransaction pins a connection within opts.MaxWait and runs fn in a
// transaction bounded by opts.Timeout. A deadline hit in either phase is
// reported as domain.ErrTxTimeout; the transaction is rolled back.
func (s *Store) RunTransaction(ctx context.Context, opts domain.TxOptions, fn func(ctx context.Context, tx domain.Repos) error) (err error) {
	waitCtx, cancelWait := withBudget(ctx, opts.MaxWait)
	conn, err := s.db.Conn(waitCtx)
	cancelWait()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: no connection within %s: %w", domain.ErrTxTimeout, opts.MaxWait, err)
		}
		return errors.Wrap(err, "acquire connection")
	}
	defer conn.Close()

	runCtx, cancel := withBudget(ctx, opts.Timeout)
	defer cancel()

	tx, err := conn.BeginTx(runCtx, nil)
	if err != nil {
		return timedOut(ctx, runCtx, opts.Timeout, errors.Wrap(err, "begin"))
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(runCtx, repos{db: tx}); err != nil {
		return timedOut(ctx, runCtx, opts.Timeout, err)
	}
	if err := tx.Commit(); err != nil {
		return timedOut(ctx, runCtx, opts.Timeout, errors.Wrap(err, "commit"))
	}
	committed = true
	return nil
}

// timedOut tags err with ErrTxTimeout when the transaction's own budget, not
// the caller's context, ran out.
func timedOut(parent, run context.Context, budget time.Duration, err error) error {
	if errors.Is(run.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s: %w", domain.ErrTxTimeout, budget, err)
	}
	return err
}

func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type repos struct{ db DBTX }

func (r repos) Users() domain.UserRepository               { return userRepo{r.db} }
func (r repos) Owners() domain.OwnerRepository             { return ownerRepo{r.db} }
func (r repos) Guests() domain.GuestRepository             { return guestRepo{r.db} }
func (r repos) Properties() domain.PropertyRepository      { return propertyRepo{r.db} }
func (r repos) Photos() domain.PhotoRepository             { return photoRepo{r.db} }
func (r repos) Reservations() domain.ReservationRepository { return reservationRepo{r.db} }
func (r repos) Reviews() domain.ReviewRepository           { return reviewRepo{r.db} }
func (r repos) Payments() domain.PaymentRepository         { return paymentRepo{r.db} }
