package app

import "rentals/internal/domain"

// OrderedMap keeps keys in insertion order. The first value stored for a key
// wins; later writes are ignored.
type OrderedMap[K comparable, V any] struct {
	idx  map[K]int
	keys []K
	vals []V
}

func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{idx: map[K]int{}}
}

// SetIfAbsent stores v under k unless k is present and reports whether it did.
func (m *OrderedMap[K, V]) SetIfAbsent(k K, v V) bool {
	if _, ok := m.idx[k]; ok {
		return false
	}
	m.idx[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return true
}

func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	i, ok := m.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

func (m *OrderedMap[K, V]) Has(k K) bool {
	_, ok := m.idx[k]
	return ok
}

func (m *OrderedMap[K, V]) Len() int { return len(m.keys) }

// Keys and Values return copies in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *OrderedMap[K, V]) Values() []V {
	out := make([]V, len(m.vals))
	copy(out, m.vals)
	return out
}

// Reasons a fragment was dropped.
const (
	ReasonMissingIdentity      = "missing_identity"
	ReasonOwnerNotStaged       = "owner_not_staged"
	ReasonPropertyNotStaged    = "property_not_staged"
	ReasonGuestNotStaged       = "guest_not_staged"
	ReasonReviewerNotStaged    = "reviewer_not_staged"
	ReasonReservationNotStaged = "reservation_not_staged"
	ReasonInvalidDates         = "invalid_dates"

	// commit time
	ReasonOwnerUnresolved         = "owner_unresolved"
	ReasonPropertyNotCommitted    = "property_not_committed"
	ReasonReservationNotCommitted = "reservation_not_committed"
)

// Warning records one dropped fragment. Row is the 1-based data row, or 0 for
// drops decided at commit time.
type Warning struct {
	Row    int    `json:"row"`
	Entity string `json:"entity"`
	ID     string `json:"id,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Reason string `json:"reason"`
}

// StagedProperty carries the owner's natural user id. The surrogate owner id
// is only known after owners are inserted.
type StagedProperty struct {
	domain.Property
	OwnerUserID string
}

// StagedGraph is the deduplicated output of one reconcile pass.
type StagedGraph struct {
	Users        *OrderedMap[string, domain.User]
	Owners       *OrderedMap[string, struct{}]
	Guests       *OrderedMap[string, struct{}]
	Properties   *OrderedMap[string, StagedProperty]
	Photos       *OrderedMap[string, domain.Photo]
	Reservations *OrderedMap[string, domain.Reservation]
	Reviews      *OrderedMap[string, domain.Review]
	Payments     *OrderedMap[string, domain.Payment]

	Rows     int
	Warnings []Warning
}

func NewStagedGraph() *StagedGraph {
	return &StagedGraph{
		Users:        NewOrderedMap[string, domain.User](),
		Owners:       NewOrderedMap[string, struct{}](),
		Guests:       NewOrderedMap[string, struct{}](),
		Properties:   NewOrderedMap[string, StagedProperty](),
		Photos:       NewOrderedMap[string, domain.Photo](),
		Reservations: NewOrderedMap[string, domain.Reservation](),
		Reviews:      NewOrderedMap[string, domain.Review](),
		Payments:     NewOrderedMap[string, domain.Payment](),
	}
}

// Empty reports a graph with no users and no properties: nothing to load.
func (g *StagedGraph) Empty() bool {
	return g.Users.Len() == 0 && g.Properties.Len() == 0
}

// Counts is a per-entity tally keyed by entity name.
type Counts map[string]int64

func (g *StagedGraph) Counts() Counts {
	return Counts{
		EntityUser:        int64(g.Users.Len()),
		EntityOwner:       int64(g.Owners.Len()),
		EntityGuest:       int64(g.Guests.Len()),
		EntityProperty:    int64(g.Properties.Len()),
		EntityPhoto:       int64(g.Photos.Len()),
		EntityReservation: int64(g.Reservations.Len()),
		EntityReview:      int64(g.Reviews.Len()),
		EntityPayment:     int64(g.Payments.Len()),
	}
}

const (
	EntityRow         = "row"
	EntityUser        = "user"
	EntityOwner       = "owner"
	EntityGuest       = "guest"
	EntityProperty    = "property"
	EntityPhoto       = "photo"
	EntityReservation = "reservation"
	EntityReview      = "review"
	EntityPayment     = "payment"
)
