package app

import (
	"github.com/rs/zerolog"

	"rentals/internal/domain"
)

// Reconciler turns raw feed rows into a StagedGraph. Bad fragments are dropped
// with a warning; reconciling never fails.
type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler(l zerolog.Logger) *Reconciler {
	return &Reconciler{log: l}
}

func (rc *Reconciler) Reconcile(rows []domain.Row) *StagedGraph {
	g := NewStagedGraph()
	g.Rows = len(rows)
	for i, row := range rows {
		rc.stageRow(g, i+1, row)
	}
	rc.log.Info().
		Int("rows", g.Rows).
		Int("users", g.Users.Len()).
		Int("owners", g.Owners.Len()).
		Int("guests", g.Guests.Len()).
		Int("properties", g.Properties.Len()).
		Int("photos", g.Photos.Len()).
		Int("reservations", g.Reservations.Len()).
		Int("reviews", g.Reviews.Len()).
		Int("payments", g.Payments.Len()).
		Int("warnings", len(g.Warnings)).
		Msg("rows reconciled")
	return g
}

func (rc *Reconciler) drop(g *StagedGraph, w Warning) {
	g.Warnings = append(g.Warnings, w)
	rc.log.Warn().
		Int("row", w.Row).
		Str("entity", w.Entity).
		Str("id", w.ID).
		Str("ref", w.Ref).
		Str("reason", w.Reason).
		Msg("fragment dropped")
}

func (rc *Reconciler) stageRow(g *StagedGraph, n int, row domain.Row) {
	userID, okID := row.Get(colUserID)
	_, okEmail := row.Get(colUserEmail)
	// Continuation rows may omit the email of a user staged earlier.
	if !okID || (!okEmail && !g.Users.Has(userID)) {
		rc.drop(g, Warning{Row: n, Entity: EntityRow, ID: userID, Reason: ReasonMissingIdentity})
		return
	}

	if !g.Users.Has(userID) {
		g.Users.SetIfAbsent(userID, mapUser(row))
	}

	// A user keeps the first role seen for it.
	if role, ok := row.Get(colUserRole); ok && !g.Owners.Has(userID) && !g.Guests.Has(userID) {
		switch role {
		case roleOwner:
			g.Owners.SetIfAbsent(userID, struct{}{})
		case roleGuest:
			g.Guests.SetIfAbsent(userID, struct{}{})
		}
	}

	rc.stageProperty(g, n, row)
	rc.stagePhoto(g, n, row)
	rc.stageReservation(g, n, row)
	rc.stageReview(g, n, row)
	rc.stagePayment(g, n, row)
}

func (rc *Reconciler) stageProperty(g *StagedGraph, n int, row domain.Row) {
	id, okID := row.Get(colPropID)
	owner, okOwner := row.Get(colPropOwner)
	if !okID || !okOwner || g.Properties.Has(id) {
		return
	}
	if !g.Users.Has(owner) || !g.Owners.Has(owner) {
		rc.drop(g, Warning{Row: n, Entity: EntityProperty, ID: id, Ref: owner, Reason: ReasonOwnerNotStaged})
		return
	}
	g.Properties.SetIfAbsent(id, mapProperty(row))
}

func (rc *Reconciler) stagePhoto(g *StagedGraph, n int, row domain.Row) {
	id, okID := row.Get(colPhotoID)
	prop, okProp := row.Get(colPhotoPropID)
	_, okURL := row.Get(colPhotoURL)
	if !okID || !okProp || !okURL || g.Photos.Has(id) {
		return
	}
	if !g.Properties.Has(prop) {
		rc.drop(g, Warning{Row: n, Entity: EntityPhoto, ID: id, Ref: prop, Reason: ReasonPropertyNotStaged})
		return
	}
	g.Photos.SetIfAbsent(id, mapPhoto(row))
}

func (rc *Reconciler) stageReservation(g *StagedGraph, n int, row domain.Row) {
	id, okID := row.Get(colResID)
	guest, okGuest := row.Get(colResGuestUser)
	prop, okProp := row.Get(colResPropID)
	if !okID || !okGuest || !okProp || g.Reservations.Has(id) {
		return
	}
	if !g.Users.Has(guest) {
		rc.drop(g, Warning{Row: n, Entity: EntityReservation, ID: id, Ref: guest, Reason: ReasonGuestNotStaged})
		return
	}
	if !g.Properties.Has(prop) {
		rc.drop(g, Warning{Row: n, Entity: EntityReservation, ID: id, Ref: prop, Reason: ReasonPropertyNotStaged})
		return
	}
	checkIn, okIn := parseDate(row.Get(colResCheckIn))
	checkOut, okOut := parseDate(row.Get(colResCheckOut))
	if !okIn || !okOut || !checkOut.After(checkIn) {
		rc.drop(g, Warning{Row: n, Entity: EntityReservation, ID: id, Reason: ReasonInvalidDates})
		return
	}
	g.Reservations.SetIfAbsent(id, mapReservation(row, checkIn, checkOut))
}

func (rc *Reconciler) stageReview(g *StagedGraph, n int, row domain.Row) {
	id, okID := row.Get(colRevID)
	reviewer, okReviewer := row.Get(colRevReviewer)
	prop, okProp := row.Get(colRevPropID)
	if !okID || !okReviewer || !okProp || g.Reviews.Has(id) {
		return
	}
	if !g.Users.Has(reviewer) {
		rc.drop(g, Warning{Row: n, Entity: EntityReview, ID: id, Ref: reviewer, Reason: ReasonReviewerNotStaged})
		return
	}
	if !g.Properties.Has(prop) {
		rc.drop(g, Warning{Row: n, Entity: EntityReview, ID: id, Ref: prop, Reason: ReasonPropertyNotStaged})
		return
	}
	g.Reviews.SetIfAbsent(id, mapReview(row))
}

func (rc *Reconciler) stagePayment(g *StagedGraph, n int, row domain.Row) {
	id, okID := row.Get(colPayID)
	res, okRes := row.Get(colPayResID)
	if !okID || !okRes || g.Payments.Has(id) {
		return
	}
	if !g.Reservations.Has(res) {
		rc.drop(g, Warning{Row: n, Entity: EntityPayment, ID: id, Ref: res, Reason: ReasonReservationNotStaged})
		return
	}
	g.Payments.SetIfAbsent(id, mapPayment(row))
}
