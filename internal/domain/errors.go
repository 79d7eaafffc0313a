package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConstraint is a unique or foreign key violation the store refused.
	ErrConstraint = errors.New("constraint violation")

	// ErrTxTimeout means a transaction exceeded its MaxWait or Timeout budget.
	ErrTxTimeout = errors.New("transaction timed out")

	// ErrOwnerResolution means owners were inserted but the re-query saw none.
	ErrOwnerResolution = errors.New("owner surrogate ids could not be resolved")

	ErrLoadInProgress = errors.New("another load is in progress")
)
