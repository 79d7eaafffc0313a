package memory

import (
	"context"

	"rentals/internal/domain"
)

func ptr[T any](v T) *T { return &v }

/********** users **********/

type userRepo struct{ a access }

func (r userRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.a.write(ctx, func(st *state) error {
		if err := st.userConflict(u); err != nil {
			return err
		}
		st.putUser(u)
		return nil
	})
	return u, err
}

func (r userRepo) CreateMany(ctx context.Context, us []domain.User) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, u := range us {
			if st.userConflict(u) != nil {
				continue
			}
			st.putUser(u)
			n++
		}
		return nil
	})
	return n, err
}

func (r userRepo) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	var out *domain.User
	err := r.a.read(ctx, func(st *state) error {
		if u, ok := st.users.get(userID); ok {
			out = ptr(u)
		}
		return nil
	})
	return out, err
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.a.read(ctx, func(st *state) error {
		if id, ok := st.emails[email]; ok {
			u, _ := st.users.get(id)
			out = ptr(u)
		}
		return nil
	})
	return out, err
}

func (r userRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	var out *domain.User
	err := r.a.write(ctx, func(st *state) error {
		if !st.users.has(u.UserID) {
			return nil
		}
		if id, ok := st.emails[u.Email]; ok && id != u.UserID {
			return dup("email", u.Email)
		}
		st.putUser(u)
		out = ptr(u)
		return nil
	})
	return out, err
}

func (r userRepo) Delete(ctx context.Context, userID string) (*domain.User, error) {
	var out *domain.User
	err := r.a.write(ctx, func(st *state) error {
		u, ok := st.users.get(userID)
		if !ok {
			return nil
		}
		if st.userReferenced(userID) {
			return referenced("user", userID)
		}
		st.users.del(userID)
		delete(st.emails, u.Email)
		out = ptr(u)
		return nil
	})
	return out, err
}

/********** owners **********/

type ownerRepo struct{ a access }

func (r ownerRepo) Create(ctx context.Context, userID string) (domain.PropertyOwner, error) {
	var out domain.PropertyOwner
	err := r.a.write(ctx, func(st *state) error {
		o, err := st.insertOwner(userID)
		out = o
		return err
	})
	return out, err
}

func (r ownerRepo) CreateMany(ctx context.Context, userIDs []string) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, uid := range userIDs {
			if _, ok := st.ownerByUser[uid]; ok {
				continue
			}
			if _, err := st.insertOwner(uid); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (r ownerRepo) FindByID(ctx context.Context, id int64) (*domain.PropertyOwner, error) {
	var out *domain.PropertyOwner
	err := r.a.read(ctx, func(st *state) error {
		if o, ok := st.owners.get(id); ok {
			out = ptr(o)
		}
		return nil
	})
	return out, err
}

func (r ownerRepo) FindByUserID(ctx context.Context, userID string) (*domain.PropertyOwner, error) {
	var out *domain.PropertyOwner
	err := r.a.read(ctx, func(st *state) error {
		if id, ok := st.ownerByUser[userID]; ok {
			o, _ := st.owners.get(id)
			out = ptr(o)
		}
		return nil
	})
	return out, err
}

func (r ownerRepo) FindByUserIDs(ctx context.Context, userIDs []string) ([]domain.PropertyOwner, error) {
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []domain.PropertyOwner
	err := r.a.read(ctx, func(st *state) error {
		out = st.owners.where(func(o domain.PropertyOwner) bool { return want[o.UserID] })
		return nil
	})
	return out, err
}

func (r ownerRepo) Update(ctx context.Context, o domain.PropertyOwner) (*domain.PropertyOwner, error) {
	var out *domain.PropertyOwner
	err := r.a.write(ctx, func(st *state) error {
		old, ok := st.owners.get(o.ID)
		if !ok {
			return nil
		}
		if old.UserID != o.UserID {
			if !st.users.has(o.UserID) {
				return missingRef("user", o.UserID)
			}
			if _, taken := st.ownerByUser[o.UserID]; taken {
				return dup("owner for user", o.UserID)
			}
			delete(st.ownerByUser, old.UserID)
			st.ownerByUser[o.UserID] = o.ID
		}
		st.owners.put(o.ID, o)
		out = ptr(o)
		return nil
	})
	return out, err
}

func (r ownerRepo) Delete(ctx context.Context, id int64) (*domain.PropertyOwner, error) {
	var out *domain.PropertyOwner
	err := r.a.write(ctx, func(st *state) error {
		o, ok := st.owners.get(id)
		if !ok {
			return nil
		}
		if st.properties.exists(func(p domain.Property) bool { return p.OwnerID == id }) {
			return referenced("owner", id)
		}
		st.owners.del(id)
		delete(st.ownerByUser, o.UserID)
		out = ptr(o)
		return nil
	})
	return out, err
}

/********** guests **********/

type guestRepo struct{ a access }

func (r guestRepo) Create(ctx context.Context, userID string) (domain.Guest, error) {
	var out domain.Guest
	err := r.a.write(ctx, func(st *state) error {
		g, err := st.insertGuest(userID)
		out = g
		return err
	})
	return out, err
}

func (r guestRepo) CreateMany(ctx context.Context, userIDs []string) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, uid := range userIDs {
			if _, ok := st.guestByUser[uid]; ok {
				continue
			}
			if _, err := st.insertGuest(uid); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (r guestRepo) FindByID(ctx context.Context, id int64) (*domain.Guest, error) {
	var out *domain.Guest
	err := r.a.read(ctx, func(st *state) error {
		if g, ok := st.guests.get(id); ok {
			out = ptr(g)
		}
		return nil
	})
	return out, err
}

func (r guestRepo) FindByUserID(ctx context.Context, userID string) (*domain.Guest, error) {
	var out *domain.Guest
	err := r.a.read(ctx, func(st *state) error {
		if id, ok := st.guestByUser[userID]; ok {
			g, _ := st.guests.get(id)
			out = ptr(g)
		}
		return nil
	})
	return out, err
}

func (r guestRepo) Update(ctx context.Context, g domain.Guest) (*domain.Guest, error) {
	var out *domain.Guest
	err := r.a.write(ctx, func(st *state) error {
		old, ok := st.guests.get(g.ID)
		if !ok {
			return nil
		}
		if old.UserID != g.UserID {
			if !st.users.has(g.UserID) {
				return missingRef("user", g.UserID)
			}
			if _, taken := st.guestByUser[g.UserID]; taken {
				return dup("guest for user", g.UserID)
			}
			delete(st.guestByUser, old.UserID)
			st.guestByUser[g.UserID] = g.ID
		}
		st.guests.put(g.ID, g)
		out = ptr(g)
		return nil
	})
	return out, err
}

func (r guestRepo) Delete(ctx context.Context, id int64) (*domain.Guest, error) {
	var out *domain.Guest
	err := r.a.write(ctx, func(st *state) error {
		g, ok := st.guests.get(id)
		if !ok {
			return nil
		}
		st.guests.del(id)
		delete(st.guestByUser, g.UserID)
		out = ptr(g)
		return nil
	})
	return out, err
}

/********** properties **********/

type propertyRepo struct{ a access }

func (r propertyRepo) Create(ctx context.Context, p domain.Property) (domain.Property, error) {
	err := r.a.write(ctx, func(st *state) error {
		if st.properties.has(p.PropertyID) {
			return dup("property", p.PropertyID)
		}
		if err := st.checkProperty(p); err != nil {
			return err
		}
		st.properties.put(p.PropertyID, p)
		return nil
	})
	return p, err
}

func (r propertyRepo) CreateMany(ctx context.Context, ps []domain.Property) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, p := range ps {
			if st.properties.has(p.PropertyID) {
				continue
			}
			if err := st.checkProperty(p); err != nil {
				return err
			}
			st.properties.put(p.PropertyID, p)
			n++
		}
		return nil
	})
	return n, err
}

func (r propertyRepo) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	var out *domain.Property
	err := r.a.read(ctx, func(st *state) error {
		if p, ok := st.properties.get(id); ok {
			out = ptr(p)
		}
		return nil
	})
	return out, err
}

func (r propertyRepo) FindByOwnerID(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	var out []domain.Property
	err := r.a.read(ctx, func(st *state) error {
		out = st.properties.where(func(p domain.Property) bool { return p.OwnerID == ownerID })
		return nil
	})
	return out, err
}

func (r propertyRepo) Update(ctx context.Context, p domain.Property) (*domain.Property, error) {
	var out *domain.Property
	err := r.a.write(ctx, func(st *state) error {
		if !st.properties.has(p.PropertyID) {
			return nil
		}
		if err := st.checkProperty(p); err != nil {
			return err
		}
		st.properties.put(p.PropertyID, p)
		out = ptr(p)
		return nil
	})
	return out, err
}

func (r propertyRepo) Delete(ctx context.Context, id string) (*domain.Property, error) {
	var out *domain.Property
	err := r.a.write(ctx, func(st *state) error {
		p, ok := st.properties.get(id)
		if !ok {
			return nil
		}
		if st.propertyReferenced(id) {
			return referenced("property", id)
		}
		st.properties.del(id)
		out = ptr(p)
		return nil
	})
	return out, err
}

/********** photos **********/

type photoRepo struct{ a access }

func (r photoRepo) Create(ctx context.Context, p domain.Photo) (domain.Photo, error) {
	err := r.a.write(ctx, func(st *state) error {
		if st.photos.has(p.PhotoID) {
			return dup("photo", p.PhotoID)
		}
		if err := st.checkPhoto(p); err != nil {
			return err
		}
		st.photos.put(p.PhotoID, p)
		return nil
	})
	return p, err
}

func (r photoRepo) CreateMany(ctx context.Context, ps []domain.Photo) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, p := range ps {
			if st.photos.has(p.PhotoID) {
				continue
			}
			if err := st.checkPhoto(p); err != nil {
				return err
			}
			st.photos.put(p.PhotoID, p)
			n++
		}
		return nil
	})
	return n, err
}

func (r photoRepo) FindByID(ctx context.Context, id string) (*domain.Photo, error) {
	var out *domain.Photo
	err := r.a.read(ctx, func(st *state) error {
		if p, ok := st.photos.get(id); ok {
			out = ptr(p)
		}
		return nil
	})
	return out, err
}

func (r photoRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Photo, error) {
	var out []domain.Photo
	err := r.a.read(ctx, func(st *state) error {
		out = st.photos.where(func(p domain.Photo) bool { return p.PropertyID == propertyID })
		return nil
	})
	return out, err
}

func (r photoRepo) Update(ctx context.Context, p domain.Photo) (*domain.Photo, error) {
	var out *domain.Photo
	err := r.a.write(ctx, func(st *state) error {
		if !st.photos.has(p.PhotoID) {
			return nil
		}
		if err := st.checkPhoto(p); err != nil {
			return err
		}
		st.photos.put(p.PhotoID, p)
		out = ptr(p)
		return nil
	})
	return out, err
}

func (r photoRepo) Delete(ctx context.Context, id string) (*domain.Photo, error) {
	var out *domain.Photo
	err := r.a.write(ctx, func(st *state) error {
		p, ok := st.photos.get(id)
		if !ok {
			return nil
		}
		st.photos.del(id)
		out = ptr(p)
		return nil
	})
	return out, err
}

/********** reservations **********/

type reservationRepo struct{ a access }

func (r reservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	err := r.a.write(ctx, func(st *state) error {
		if st.reservations.has(res.ReservationID) {
			return dup("reservation", res.ReservationID)
		}
		if err := st.checkReservation(res); err != nil {
			return err
		}
		st.reservations.put(res.ReservationID, res)
		return nil
	})
	return res, err
}

func (r reservationRepo) CreateMany(ctx context.Context, rs []domain.Reservation) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, res := range rs {
			if st.reservations.has(res.ReservationID) {
				continue
			}
			if err := st.checkReservation(res); err != nil {
				return err
			}
			st.reservations.put(res.ReservationID, res)
			n++
		}
		return nil
	})
	return n, err
}

func (r reservationRepo) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.a.read(ctx, func(st *state) error {
		if res, ok := st.reservations.get(id); ok {
			out = ptr(res)
		}
		return nil
	})
	return out, err
}

func (r reservationRepo) FindByGuestUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.a.read(ctx, func(st *state) error {
		out = st.reservations.where(func(res domain.Reservation) bool { return res.GuestUserID == userID })
		return nil
	})
	return out, err
}

func (r reservationRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.a.read(ctx, func(st *state) error {
		out = st.reservations.where(func(res domain.Reservation) bool { return res.PropertyID == propertyID })
		return nil
	})
	return out, err
}

func (r reservationRepo) Update(ctx context.Context, res domain.Reservation) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.a.write(ctx, func(st *state) error {
		if !st.reservations.has(res.ReservationID) {
			return nil
		}
		if err := st.checkReservation(res); err != nil {
			return err
		}
		st.reservations.put(res.ReservationID, res)
		out = ptr(res)
		return nil
	})
	return out, err
}

func (r reservationRepo) Delete(ctx context.Context, id string) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.a.write(ctx, func(st *state) error {
		res, ok := st.reservations.get(id)
		if !ok {
			return nil
		}
		if st.payments.exists(func(p domain.Payment) bool { return p.ReservationID == id }) {
			return referenced("reservation", id)
		}
		st.reservations.del(id)
		out = ptr(res)
		return nil
	})
	return out, err
}

/********** reviews **********/

type reviewRepo struct{ a access }

func (r reviewRepo) Create(ctx context.Context, rv domain.Review) (domain.Review, error) {
	err := r.a.write(ctx, func(st *state) error {
		if st.reviews.has(rv.ReviewID) {
			return dup("review", rv.ReviewID)
		}
		if err := st.checkReview(rv); err != nil {
			return err
		}
		st.reviews.put(rv.ReviewID, rv)
		return nil
	})
	return rv, err
}

func (r reviewRepo) CreateMany(ctx context.Context, rs []domain.Review) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, rv := range rs {
			if st.reviews.has(rv.ReviewID) {
				continue
			}
			if err := st.checkReview(rv); err != nil {
				return err
			}
			st.reviews.put(rv.ReviewID, rv)
			n++
		}
		return nil
	})
	return n, err
}

func (r reviewRepo) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	var out *domain.Review
	err := r.a.read(ctx, func(st *state) error {
		if rv, ok := st.reviews.get(id); ok {
			out = ptr(rv)
		}
		return nil
	})
	return out, err
}

func (r reviewRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Review, error) {
	var out []domain.Review
	err := r.a.read(ctx, func(st *state) error {
		out = st.reviews.where(func(rv domain.Review) bool { return rv.PropertyID == propertyID })
		return nil
	})
	return out, err
}

func (r reviewRepo) FindByReviewerUserID(ctx context.Context, userID string) ([]domain.Review, error) {
	var out []domain.Review
	err := r.a.read(ctx, func(st *state) error {
		out = st.reviews.where(func(rv domain.Review) bool { return rv.ReviewerUserID == userID })
		return nil
	})
	return out, err
}

func (r reviewRepo) Update(ctx context.Context, rv domain.Review) (*domain.Review, error) {
	var out *domain.Review
	err := r.a.write(ctx, func(st *state) error {
		if !st.reviews.has(rv.ReviewID) {
			return nil
		}
		if err := st.checkReview(rv); err != nil {
			return err
		}
		st.reviews.put(rv.ReviewID, rv)
		out = ptr(rv)
		return nil
	})
	return out, err
}

func (r reviewRepo) Delete(ctx context.Context, id string) (*domain.Review, error) {
	var out *domain.Review
	err := r.a.write(ctx, func(st *state) error {
		rv, ok := st.reviews.get(id)
		if !ok {
			return nil
		}
		st.reviews.del(id)
		out = ptr(rv)
		return nil
	})
	return out, err
}

/********** payments **********/

type paymentRepo struct{ a access }

func (r paymentRepo) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	err := r.a.write(ctx, func(st *state) error {
		if st.payments.has(p.PaymentID) {
			return dup("payment", p.PaymentID)
		}
		if err := st.checkPayment(p); err != nil {
			return err
		}
		st.payments.put(p.PaymentID, p)
		return nil
	})
	return p, err
}

func (r paymentRepo) CreateMany(ctx context.Context, ps []domain.Payment) (int64, error) {
	var n int64
	err := r.a.write(ctx, func(st *state) error {
		n = 0
		for _, p := range ps {
			if st.payments.has(p.PaymentID) {
				continue
			}
			if err := st.checkPayment(p); err != nil {
				return err
			}
			st.payments.put(p.PaymentID, p)
			n++
		}
		return nil
	})
	return n, err
}

func (r paymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.a.read(ctx, func(st *state) error {
		if p, ok := st.payments.get(id); ok {
			out = ptr(p)
		}
		return nil
	})
	return out, err
}

func (r paymentRepo) FindByReservationID(ctx context.Context, reservationID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.a.read(ctx, func(st *state) error {
		out = st.payments.where(func(p domain.Payment) bool { return p.ReservationID == reservationID })
		return nil
	})
	return out, err
}

func (r paymentRepo) Update(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.a.write(ctx, func(st *state) error {
		if !st.payments.has(p.PaymentID) {
			return nil
		}
		if err := st.checkPayment(p); err != nil {
			return err
		}
		st.payments.put(p.PaymentID, p)
		out = ptr(p)
		return nil
	})
	return out, err
}

func (r paymentRepo) Delete(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.a.write(ctx, func(st *state) error {
		p, ok := st.payments.get(id)
		if !ok {
			return nil
		}
		st.payments.del(id)
		out = ptr(p)
		return nil
	})
	return out, err
}
