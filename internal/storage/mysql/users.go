package mysql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"rentals/internal/domain"
)

// findOne returns (nil, nil) when the query matches no row.
func findOne[T any](ctx context.Context, db DBTX, q string, scan func(scanner) (T, error), args ...any) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, db DBTX, q string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

/********** users **********/

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	var phone sql.NullString
	if err := s.Scan(&u.UserID, &u.Name, &u.Email, &phone, &u.Verified); err != nil {
		return domain.User{}, err
	}
	u.Phone = nullStr(phone)
	return u, nil
}

func userArgs(u domain.User) []any {
	return []any{u.UserID, u.Name, u.Email, valStr(u.Phone), u.Verified}
}

type userRepo struct{ db DBTX }

func (r userRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	_, err := r.db.ExecContext(ctx, insertUsersPrefix+userTuple, userArgs(u)...)
	return u, wrap(err, "insert user")
}

func (r userRepo) CreateMany(ctx context.Context, us []domain.User) (int64, error) {
	n, err := insertMany(ctx, r.db, insertUsersPrefix, userTuple, "user_id", us, userArgs)
	return n, wrap(err, "insert users")
}

func (r userRepo) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	u, err := findOne(ctx, r.db, selectUserSQL, scanUser, userID)
	return u, wrap(err, "select user")
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := findOne(ctx, r.db, selectUserByEmailSQL, scanUser, email)
	return u, wrap(err, "select user by email")
}

func (r userRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	if _, err := r.db.ExecContext(ctx, updateUserSQL, u.Name, u.Email, valStr(u.Phone), u.Verified, u.UserID); err != nil {
		return nil, wrap(err, "update user")
	}
	return r.FindByID(ctx, u.UserID)
}

func (r userRepo) Delete(ctx context.Context, userID string) (*domain.User, error) {
	u, err := r.FindByID(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deleteUserSQL, userID); err != nil {
		return nil, wrap(err, "delete user")
	}
	return u, nil
}

/********** owners **********/

func scanOwner(s scanner) (domain.PropertyOwner, error) {
	var o domain.PropertyOwner
	err := s.Scan(&o.ID, &o.UserID)
	return o, err
}

func markerArgs(userID string) []any { return []any{userID} }

type ownerRepo struct{ db DBTX }

func (r ownerRepo) Create(ctx context.Context, userID string) (domain.PropertyOwner, error) {
	res, err := r.db.ExecContext(ctx, insertOwnersPrefix+markerTuple, userID)
	if err != nil {
		return domain.PropertyOwner{}, wrap(err, "insert owner")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.PropertyOwner{}, wrap(err, "owner id")
	}
	return domain.PropertyOwner{ID: id, UserID: userID}, nil
}

func (r ownerRepo) CreateMany(ctx context.Context, userIDs []string) (int64, error) {
	n, err := insertMany(ctx, r.db, insertOwnersPrefix, markerTuple, "user_id", userIDs, markerArgs)
	return n, wrap(err, "insert owners")
}

func (r ownerRepo) FindByID(ctx context.Context, id int64) (*domain.PropertyOwner, error) {
	o, err := findOne(ctx, r.db, selectOwnerSQL, scanOwner, id)
	return o, wrap(err, "select owner")
}

func (r ownerRepo) FindByUserID(ctx context.Context, userID string) (*domain.PropertyOwner, error) {
	o, err := findOne(ctx, r.db, selectOwnerByUserSQL, scanOwner, userID)
	return o, wrap(err, "select owner by user")
}

// FindByUserIDs re-reads owners so callers learn the surrogate ids the
// database assigned.
func (r ownerRepo) FindByUserIDs(ctx context.Context, userIDs []string) ([]domain.PropertyOwner, error) {
	out := []domain.PropertyOwner{}
	for start := 0; start < len(userIDs); start += maxBatch {
		chunk := userIDs[start:min(start+maxBatch, len(userIDs))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		found, err := findAll(ctx, r.db, selectOwnersByUsersPrefix+placeholders(len(chunk)), scanOwner, args...)
		if err != nil {
			return nil, wrap(err, "select owners by users")
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r ownerRepo) Update(ctx context.Context, o domain.PropertyOwner) (*domain.PropertyOwner, error) {
	if _, err := r.db.ExecContext(ctx, updateOwnerSQL, o.UserID, o.ID); err != nil {
		return nil, wrap(err, "update owner")
	}
	return r.FindByID(ctx, o.ID)
}

func (r ownerRepo) Delete(ctx context.Context, id int64) (*domain.PropertyOwner, error) {
	o, err := r.FindByID(ctx, id)
	if err != nil || o == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deleteOwnerSQL, id); err != nil {
		return nil, wrap(err, "delete owner")
	}
	return o, nil
}

/********** guests **********/

func scanGuest(s scanner) (domain.Guest, error) {
	var g domain.Guest
	err := s.Scan(&g.ID, &g.UserID)
	return g, err
}

type guestRepo struct{ db DBTX }

func (r guestRepo) Create(ctx context.Context, userID string) (domain.Guest, error) {
	res, err := r.db.ExecContext(ctx, insertGuestsPrefix+markerTuple, userID)
	if err != nil {
		return domain.Guest{}, wrap(err, "insert guest")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Guest{}, wrap(err, "guest id")
	}
	return domain.Guest{ID: id, UserID: userID}, nil
}

func (r guestRepo) CreateMany(ctx context.Context, userIDs []string) (int64, error) {
	n, err := insertMany(ctx, r.db, insertGuestsPrefix, markerTuple, "user_id", userIDs, markerArgs)
	return n, wrap(err, "insert guests")
}

func (r guestRepo) FindByID(ctx context.Context, id int64) (*domain.Guest, error) {
	g, err := findOne(ctx, r.db, selectGuestSQL, scanGuest, id)
	return g, wrap(err, "select guest")
}

func (r guestRepo) FindByUserID(ctx context.Context, userID string) (*domain.Guest, error) {
	g, err := findOne(ctx, r.db, selectGuestByUserSQL, scanGuest, userID)
	return g, wrap(err, "select guest by user")
}

func (r guestRepo) Update(ctx context.Context, g domain.Guest) (*domain.Guest, error) {
	if _, err := r.db.ExecContext(ctx, updateGuestSQL, g.UserID, g.ID); err != nil {
		return nil, wrap(err, "update guest")
	}
	return r.FindByID(ctx, g.ID)
}

func (r guestRepo) Delete(ctx context.Context, id int64) (*domain.Guest, error) {
	g, err := r.FindByID(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deleteGuestSQL, id); err != nil {
		return nil, wrap(err, "delete guest")
	}
	return g, nil
}
