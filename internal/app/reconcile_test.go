package app

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"rentals/internal/domain"
)

func reconcile(rows ...domain.Row) *StagedGraph {
	return NewReconciler(zerolog.Nop()).Reconcile(rows)
}

func reasons(g *StagedGraph) []string {
	out := []string{}
	for _, w := range g.Warnings {
		out = append(out, w.Entity+":"+w.Reason)
	}
	return out
}

func TestReconcile_OwnerPropertyGuestReservation(t *testing.T) {
	g := reconcile(
		domain.Row{"user_id": "u1", "user_email": "a@x.com", "user_role": "PropertyOwner"},
		domain.Row{"user_id": "u1", "prop_id": "p1", "prop_owner_user_id": "u1", "prop_price": "100", "prop_max_guests": "2"},
		domain.Row{"user_id": "u2", "user_email": "b@x.com", "user_role": "Guest",
			"res_id": "r1", "res_guest_user_id": "u2", "res_prop_id": "p1",
			"res_check_in": "2024-01-01", "res_check_out": "2024-01-03"},
	)

	require.Equal(t, []string{"u1", "u2"}, g.Users.Keys())
	require.Equal(t, []string{"u1"}, g.Owners.Keys())
	require.Equal(t, []string{"u2"}, g.Guests.Keys())
	require.Empty(t, g.Warnings)

	p, ok := g.Properties.Get("p1")
	require.True(t, ok)
	require.Equal(t, "u1", p.OwnerUserID)
	require.Equal(t, "100", p.PricePerNight.String())
	require.Equal(t, 2, p.MaxGuests)

	r, ok := g.Reservations.Get("r1")
	require.True(t, ok)
	require.Equal(t, "u2", r.GuestUserID)
	require.Equal(t, "p1", r.PropertyID)
	require.Equal(t, 2, r.Nights())
}

func TestReconcile_PropertyOfNonOwnerDropped(t *testing.T) {
	g := reconcile(
		domain.Row{"user_id": "u2", "user_email": "b@x.com", "user_role": "Guest"},
		domain.Row{"user_id": "u2", "prop_id": "p2", "prop_owner_user_id": "u2"},
		domain.Row{"user_id": "u2", "prop_id": "p3", "prop_owner_user_id": "nobody"},
	)

	require.Zero(t, g.Properties.Len())
	require.Len(t, g.Warnings, 2)
	w := g.Warnings[0]
	require.Equal(t, Warning{Row: 2, Entity: EntityProperty, ID: "p2", Ref: "u2", Reason: ReasonOwnerNotStaged}, w)
}

func TestReconcile_MissingIdentitySkipsRow(t *testing.T) {
	g := reconcile(
		domain.Row{"user_email": "a@x.com", "prop_id": "p1"},
		domain.Row{"user_id": "u1", "prop_id": "p1"},
		domain.Row{"user_id": "", "user_email": "a@x.com"},
	)
	require.True(t, g.Empty())
	require.Equal(t, []string{"row:missing_identity", "row:missing_identity", "row:missing_identity"}, reasons(g))
}

func TestReconcile_FirstRoleWins(t *testing.T) {
	g := reconcile(
		domain.Row{"user_id": "u1", "user_email": "a@x.com", "user_role": "Guest"},
		domain.Row{"user_id": "u1", "user_email": "a@x.com", "user_role": "PropertyOwner"},
		domain.Row{"user_id": "u2", "user_email": "b@x.com", "user_role": "admin"},
		domain.Row{"user_id": "u2", "user_email": "b@x.com", "user_role": "PropertyOwner"},
	)
	require.Equal(t, []string{"u1"}, g.Guests.Keys())
	require.Equal(t, []string{"u2"}, g.Owners.Keys())
}

func TestReconcile_FirstOccurrenceWins(t *testing.T) {
	g := reconcile(
		domain.Row{"user_id": "u1", "user_email": "first@x.com", "user_name": "First"},
		domain.Row{"user_id": "u1", "user_email": "second@x.com", "user_name": "Second"},
	)
	u, _ := g.Users.Get("u1")
	require.Equal(t, "First", u.Name)
	require.Equal(t, "first@x.com", u.Email)
}

func TestReconcile_UserDefaults(t *testing.T) {
	g := reconcile(
		domain.Row{"user_id": "abcdefgh", "user_email": "MiXed@X.com", "user_verified": "TRUE"},
		domain.Row{"user_id": "ab", "user_email": "b@x.com", "user_name": "   ", "user_verified": "yes"},
	)
	u, _ := g.Users.Get("abcdefgh")
	require.Equal(t, "User abcde", u.Name)
	require.Equal(t, "mixed@x.com", u.Email)
	require.True(t, u.Verified)
	require.Nil(t, u.Phone)

	u2, _ := g.Users.Get("ab")
	require.Equal(t, "User ab", u2.Name)
	require.False(t, u2.Verified)
}

func ownerRow(extra domain.Row) domain.Row {
	r := domain.Row{"user_id": "u1", "user_email": "a@x.com", "user_role": "PropertyOwner", "prop_id": "p1", "prop_owner_user_id": "u1"}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestReconcile_PropertyDefaults(t *testing.T) {
	g := reconcile(ownerRow(domain.Row{"prop_price": "abc", "prop_type": "castle", "prop_amenities": " wifi ,, pool ,"}))
	p, ok := g.Properties.Get("p1")
	require.True(t, ok)
	require.Equal(t, defaultTitle, p.Title)
	require.Equal(t, "", p.Description)
	require.True(t, p.PricePerNight.IsZero())
	require.Equal(t, 1, p.MaxGuests)
	require.Equal(t, domain.PropertyOther, p.Type)
	require.Equal(t, []string{"wifi", "pool"}, p.Amenities)
}

func TestReconcile_PermissiveNumbers(t *testing.T) {
	g := reconcile(ownerRow(domain.Row{"prop_price": "$1,250.50", "prop_max_guests": "3.9", "prop_type": "villa"}))
	p, _ := g.Properties.Get("p1")
	require.Equal(t, "1250.5", p.PricePerNight.String())
	require.Equal(t, 3, p.MaxGuests)
	require.Equal(t, domain.PropertyVilla, p.Type)
}

func TestReconcile_ReservationDates(t *testing.T) {
	base := domain.Row{"user_role": "PropertyOwner"}
	rows := []domain.Row{ownerRow(base)}
	for i, dates := range [][2]string{
		{"2024-01-03", "2024-01-01"}, // reversed
		{"2024-01-01", "2024-01-01"}, // equal
		{"not a date", "2024-01-02"},
		{"2024-01-01", ""},
		{"01/05/2024", "Jan 7, 2024"},
	} {
		rows = append(rows, domain.Row{
			"user_id": "u1", "res_id": string(rune('a' + i)), "res_guest_user_id": "u1", "res_prop_id": "p1",
			"res_check_in": dates[0], "res_check_out": dates[1],
		})
	}
	g := reconcile(rows...)

	require.Equal(t, []string{
		"reservation:invalid_dates",
		"reservation:invalid_dates",
		"reservation:invalid_dates",
		"reservation:invalid_dates",
	}, reasons(g))
	require.Equal(t, 1, g.Reservations.Len())
	r, _ := g.Reservations.Get("e")
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), r.CheckIn)
	require.Equal(t, 2, r.Nights())
	require.Equal(t, domain.ReservationPending, r.Status)
	require.Equal(t, 1, r.GuestCount)
}

func TestReconcile_InvalidDatesKeepOtherFragments(t *testing.T) {
	g := reconcile(ownerRow(domain.Row{
		"res_id": "r1", "res_guest_user_id": "u1", "res_prop_id": "p1",
		"res_check_in": "bad", "res_check_out": "2024-01-02",
		"rev_id": "rv1", "rev_reviewer_user_id": "u1", "rev_prop_id": "p1", "rev_rating": "4",
	}))
	require.Zero(t, g.Reservations.Len())
	require.Equal(t, 1, g.Reviews.Len())
}

func TestReconcile_DanglingReferences(t *testing.T) {
	g := reconcile(
		ownerRow(domain.Row{"photo_id": "ph1", "photo_prop_id": "p1", "photo_url": "http://x/1"}),
		domain.Row{"user_id": "u1", "photo_id": "ph2", "photo_prop_id": "p9", "photo_url": "http://x/2"},
		domain.Row{"user_id": "u1", "res_id": "r1", "res_guest_user_id": "ghost", "res_prop_id": "p1",
			"res_check_in": "2024-01-01", "res_check_out": "2024-01-02"},
		domain.Row{"user_id": "u1", "res_id": "r2", "res_guest_user_id": "u1", "res_prop_id": "p9",
			"res_check_in": "2024-01-01", "res_check_out": "2024-01-02"},
		domain.Row{"user_id": "u1", "rev_id": "rv1", "rev_reviewer_user_id": "ghost", "rev_prop_id": "p1"},
		domain.Row{"user_id": "u1", "rev_id": "rv2", "rev_reviewer_user_id": "u1", "rev_prop_id": "p9"},
		domain.Row{"user_id": "u1", "pay_id": "pay1", "pay_res_id": "r404", "pay_amount": "10"},
		domain.Row{"user_id": "u1", "photo_id": "ph3", "photo_prop_id": "p1"},
	)

	require.Equal(t, []string{"ph1"}, g.Photos.Keys())
	require.Zero(t, g.Reservations.Len())
	require.Zero(t, g.Reviews.Len())
	require.Zero(t, g.Payments.Len())
	require.Equal(t, []string{
		"photo:property_not_staged",
		"reservation:guest_not_staged",
		"reservation:property_not_staged",
		"review:reviewer_not_staged",
		"review:property_not_staged",
		"payment:reservation_not_staged",
	}, reasons(g))
}

func TestReconcile_PaymentDefaults(t *testing.T) {
	g := reconcile(ownerRow(domain.Row{
		"res_id": "r1", "res_guest_user_id": "u1", "res_prop_id": "p1",
		"res_check_in": "2024-02-01T10:00:00Z", "res_check_out": "2024-02-04T10:00:00Z",
		"res_status": "confirmed",
		"pay_id": "pay1", "pay_res_id": "r1", "pay_status": "weird",
	}))
	p, ok := g.Payments.Get("pay1")
	require.True(t, ok)
	require.True(t, p.Amount.IsZero())
	require.Equal(t, defaultPaymentMethod, p.Method)
	require.Equal(t, domain.PaymentPending, p.Status)
	require.Nil(t, p.TransactionFee)

	r, _ := g.Reservations.Get("r1")
	require.Equal(t, domain.ReservationConfirmed, r.Status)
	require.Equal(t, 3, r.Nights())
}

func TestOrderedMap_FirstWriteWins(t *testing.T) {
	m := NewOrderedMap[string, int]()
	require.True(t, m.SetIfAbsent("b", 1))
	require.True(t, m.SetIfAbsent("a", 2))
	require.False(t, m.SetIfAbsent("b", 3))

	v, _ := m.Get("b")
	require.Equal(t, 1, v)
	require.Equal(t, []string{"b", "a"}, m.Keys())
	require.Equal(t, []int{1, 2}, m.Values())

	keys := m.Keys()
	keys[0] = "z"
	require.Equal(t, []string{"b", "a"}, m.Keys())
}
