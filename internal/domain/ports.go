package domain

import (
	"context"
	"time"
)

// Row is one record of the flat feed keyed by column name. A column that is
// absent (or was empty in the source) is null.
type Row map[string]string

// Get returns the cell value and whether it is non-null.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

type RowSource interface {
	ReadRows(ctx context.Context, path string) ([]Row, error)
}

// Repositories. Lookups of missing rows, including Update and Delete of a
// missing row, return (nil, nil). CreateMany skips rows whose keys already
// exist and returns the number actually inserted.

type UserRepository interface {
	Create(ctx context.Context, u User) (User, error)
	CreateMany(ctx context.Context, us []User) (int64, error)
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, userID string) (*User, error)
}

type OwnerRepository interface {
	Create(ctx context.Context, userID string) (PropertyOwner, error)
	CreateMany(ctx context.Context, userIDs []string) (int64, error)
	FindByID(ctx context.Context, id int64) (*PropertyOwner, error)
	FindByUserID(ctx context.Context, userID string) (*PropertyOwner, error)
	FindByUserIDs(ctx context.Context, userIDs []string) ([]PropertyOwner, error)
	Update(ctx context.Context, o PropertyOwner) (*PropertyOwner, error)
	Delete(ctx context.Context, id int64) (*PropertyOwner, error)
}

type GuestRepository interface {
	Create(ctx context.Context, userID string) (Guest, error)
	CreateMany(ctx context.Context, userIDs []string) (int64, error)
	FindByID(ctx context.Context, id int64) (*Guest, error)
	FindByUserID(ctx context.Context, userID string) (*Guest, error)
	Update(ctx context.Context, g Guest) (*Guest, error)
	Delete(ctx context.Context, id int64) (*Guest, error)
}

type PropertyRepository interface {
	Create(ctx context.Context, p Property) (Property, error)
	CreateMany(ctx context.Context, ps []Property) (int64, error)
	FindByID(ctx context.Context, propertyID string) (*Property, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]Property, error)
	Update(ctx context.Context, p Property) (*Property, error)
	Delete(ctx context.Context, propertyID string) (*Property, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, p Photo) (Photo, error)
	CreateMany(ctx context.Context, ps []Photo) (int64, error)
	FindByID(ctx context.Context, photoID string) (*Photo, error)
	FindByPropertyID(ctx context.Context, propertyID string) ([]Photo, error)
	Update(ctx context.Context, p Photo) (*Photo, error)
	Delete(ctx context.Context, photoID string) (*Photo, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r Reservation) (Reservation, error)
	CreateMany(ctx context.Context, rs []Reservation) (int64, error)
	FindByID(ctx context.Context, reservationID string) (*Reservation, error)
	FindByGuestUserID(ctx context.Context, userID string) ([]Reservation, error)
	FindByPropertyID(ctx context.Context, propertyID string) ([]Reservation, error)
	Update(ctx context.Context, r Reservation) (*Reservation, error)
	Delete(ctx context.Context, reservationID string) (*Reservation, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r Review) (Review, error)
	CreateMany(ctx context.Context, rs []Review) (int64, error)
	FindByID(ctx context.Context, reviewID string) (*Review, error)
	FindByPropertyID(ctx context.Context, propertyID string) ([]Review, error)
	FindByReviewerUserID(ctx context.Context, userID string) ([]Review, error)
	Update(ctx context.Context, r Review) (*Review, error)
	Delete(ctx context.Context, reviewID string) (*Review, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p Payment) (Payment, error)
	CreateMany(ctx context.Context, ps []Payment) (int64, error)
	FindByID(ctx context.Context, paymentID string) (*Payment, error)
	FindByReservationID(ctx context.Context, reservationID string) ([]Payment, error)
	Update(ctx context.Context, p Payment) (*Payment, error)
	Delete(ctx context.Context, paymentID string) (*Payment, error)
}

// Repos groups the per-entity repositories, either bound to the store
// directly or to an open transaction.
type Repos interface {
	Users() UserRepository
	Owners() OwnerRepository
	Guests() GuestRepository
	Properties() PropertyRepository
	Photos() PhotoRepository
	Reservations() ReservationRepository
	Reviews() ReviewRepository
	Payments() PaymentRepository
}

// TxOptions bounds a transaction: MaxWait to acquire it, Timeout to run it.
// Zero disables the bound.
type TxOptions struct {
	MaxWait time.Duration
	Timeout time.Duration
}

type Store interface {
	Repos
	// RunTransaction commits when fn returns nil and rolls back otherwise.
	// Exceeding either budget fails with ErrTxTimeout and leaves no writes.
	RunTransaction(ctx context.Context, opts TxOptions, fn func(ctx context.Context, tx Repos) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Locker grants one holder per key. Acquire fails with ErrLoadInProgress when
// the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Read models

type PropertyView struct {
	Property
	OwnerUserID string  `json:"owner_user_id"`
	Photos      []Photo `json:"photos"`
}
