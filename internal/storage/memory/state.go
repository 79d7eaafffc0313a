package memory

import (
	"github.com/pkg/errors"

	"rentals/internal/domain"
)

// table keeps rows in insertion order.
type table[K comparable, V any] struct {
	rows  map[K]V
	order []K
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: map[K]V{}}
}

func (t *table[K, V]) get(k K) (V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

func (t *table[K, V]) has(k K) bool {
	_, ok := t.rows[k]
	return ok
}

func (t *table[K, V]) put(k K, v V) {
	if _, ok := t.rows[k]; !ok {
		t.order = append(t.order, k)
	}
	t.rows[k] = v
}

func (t *table[K, V]) del(k K) {
	if _, ok := t.rows[k]; !ok {
		return
	}
	delete(t.rows, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[K, V]) where(match func(V) bool) []V {
	out := []V{}
	for _, k := range t.order {
		if v := t.rows[k]; match(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[K, V]) exists(match func(V) bool) bool {
	for _, k := range t.order {
		if match(t.rows[k]) {
			return true
		}
	}
	return false
}

func (t *table[K, V]) count() int { return len(t.order) }

// clone copies the index. Rows are values and are never mutated in place.
func (t *table[K, V]) clone() *table[K, V] {
	c := &table[K, V]{rows: make(map[K]V, len(t.rows)), order: make([]K, len(t.order))}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	copy(c.order, t.order)
	return c
}

type state struct {
	users        *table[string, domain.User]
	owners       *table[int64, domain.PropertyOwner]
	guests       *table[int64, domain.Guest]
	properties   *table[string, domain.Property]
	photos       *table[string, domain.Photo]
	reservations *table[string, domain.Reservation]
	reviews      *table[string, domain.Review]
	payments     *table[string, domain.Payment]

	emails      map[string]string
	ownerByUser map[string]int64
	guestByUser map[string]int64
	ownerSeq    int64
	guestSeq    int64
}

func newState() *state {
	return &state{
		users:        newTable[string, domain.User](),
		owners:       newTable[int64, domain.PropertyOwner](),
		guests:       newTable[int64, domain.Guest](),
		properties:   newTable[string, domain.Property](),
		photos:       newTable[string, domain.Photo](),
		reservations: newTable[string, domain.Reservation](),
		reviews:      newTable[string, domain.Review](),
		payments:     newTable[string, domain.Payment](),
		emails:       map[string]string{},
		ownerByUser:  map[string]int64{},
		guestByUser:  map[string]int64{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:        s.users.clone(),
		owners:       s.owners.clone(),
		guests:       s.guests.clone(),
		properties:   s.properties.clone(),
		photos:       s.photos.clone(),
		reservations: s.reservations.clone(),
		reviews:      s.reviews.clone(),
		payments:     s.payments.clone(),
		emails:       cloneMap(s.emails),
		ownerByUser:  cloneMap(s.ownerByUser),
		guestByUser:  cloneMap(s.guestByUser),
		ownerSeq:     s.ownerSeq,
		guestSeq:     s.guestSeq,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func dup(what string, key any) error {
	return errors.Wrapf(domain.ErrConstraint, "duplicate %s %v", what, key)
}

func missingRef(what string, key any) error {
	return errors.Wrapf(domain.ErrConstraint, "foreign key: %s %v does not exist", what, key)
}

func referenced(what string, key any) error {
	return errors.Wrapf(domain.ErrConstraint, "%s %v is still referenced", what, key)
}

/********** users **********/

// userConflict reports whether u collides on primary key or email.
func (s *state) userConflict(u domain.User) error {
	if s.users.has(u.UserID) {
		return dup("user", u.UserID)
	}
	if _, ok := s.emails[u.Email]; ok {
		return dup("email", u.Email)
	}
	return nil
}

func (s *state) putUser(u domain.User) {
	if old, ok := s.users.get(u.UserID); ok {
		delete(s.emails, old.Email)
	}
	s.users.put(u.UserID, u)
	s.emails[u.Email] = u.UserID
}

func (s *state) userReferenced(userID string) bool {
	if _, ok := s.ownerByUser[userID]; ok {
		return true
	}
	if _, ok := s.guestByUser[userID]; ok {
		return true
	}
	return s.reservations.exists(func(r domain.Reservation) bool { return r.GuestUserID == userID }) ||
		s.reviews.exists(func(r domain.Review) bool { return r.ReviewerUserID == userID })
}

/********** owners & guests **********/

func (s *state) insertOwner(userID string) (domain.PropertyOwner, error) {
	if !s.users.has(userID) {
		return domain.PropertyOwner{}, missingRef("user", userID)
	}
	if _, ok := s.ownerByUser[userID]; ok {
		return domain.PropertyOwner{}, dup("owner for user", userID)
	}
	s.ownerSeq++
	o := domain.PropertyOwner{ID: s.ownerSeq, UserID: userID}
	s.owners.put(o.ID, o)
	s.ownerByUser[userID] = o.ID
	return o, nil
}

func (s *state) insertGuest(userID string) (domain.Guest, error) {
	if !s.users.has(userID) {
		return domain.Guest{}, missingRef("user", userID)
	}
	if _, ok := s.guestByUser[userID]; ok {
		return domain.Guest{}, dup("guest for user", userID)
	}
	s.guestSeq++
	g := domain.Guest{ID: s.guestSeq, UserID: userID}
	s.guests.put(g.ID, g)
	s.guestByUser[userID] = g.ID
	return g, nil
}

/********** properties & dependents **********/

func (s *state) checkProperty(p domain.Property) error {
	if !s.owners.has(p.OwnerID) {
		return missingRef("owner", p.OwnerID)
	}
	return nil
}

func (s *state) checkPhoto(p domain.Photo) error {
	if !s.properties.has(p.PropertyID) {
		return missingRef("property", p.PropertyID)
	}
	return nil
}

func (s *state) checkReservation(r domain.Reservation) error {
	if !s.users.has(r.GuestUserID) {
		return missingRef("user", r.GuestUserID)
	}
	if !s.properties.has(r.PropertyID) {
		return missingRef("property", r.PropertyID)
	}
	return nil
}

func (s *state) checkReview(r domain.Review) error {
	if !s.users.has(r.ReviewerUserID) {
		return missingRef("user", r.ReviewerUserID)
	}
	if !s.properties.has(r.PropertyID) {
		return missingRef("property", r.PropertyID)
	}
	return nil
}

func (s *state) checkPayment(p domain.Payment) error {
	if !s.reservations.has(p.ReservationID) {
		return missingRef("reservation", p.ReservationID)
	}
	return nil
}

func (s *state) propertyReferenced(id string) bool {
	return s.photos.exists(func(p domain.Photo) bool { return p.PropertyID == id }) ||
		s.reservations.exists(func(r domain.Reservation) bool { return r.PropertyID == id }) ||
		s.reviews.exists(func(r domain.Review) bool { return r.PropertyID == id })
}
