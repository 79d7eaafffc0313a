package mysql

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"rentals/internal/domain"
)

/********** reservations **********/

func scanReservation(s scanner) (domain.Reservation, error) {
	var r domain.Reservation
	var status string
	var requests sql.NullString
	if err := s.Scan(
		&r.ReservationID, &r.PropertyID, &r.GuestUserID,
		&r.CheckIn, &r.CheckOut, &r.TotalPrice, &r.GuestCount,
		&status, &requests,
	); err != nil {
		return domain.Reservation{}, err
	}
	r.Status = domain.ReservationStatus(status)
	r.SpecialRequests = nullStr(requests)
	return r, nil
}

func reservationArgs(r domain.Reservation) []any {
	return []any{
		r.ReservationID, r.PropertyID, r.GuestUserID,
		r.CheckIn.UTC(), r.CheckOut.UTC(), r.TotalPrice, r.GuestCount,
		string(r.Status), valStr(r.SpecialRequests),
	}
}

type reservationRepo struct{ db DBTX }

func (r reservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	_, err := r.db.ExecContext(ctx, insertReservationsPrefix+reservationTuple, reservationArgs(res)...)
	return res, wrap(err, "insert reservation")
}

func (r reservationRepo) CreateMany(ctx context.Context, rs []domain.Reservation) (int64, error) {
	n, err := insertMany(ctx, r.db, insertReservationsPrefix, reservationTuple, "reservation_id", rs, reservationArgs)
	return n, wrap(err, "insert reservations")
}

func (r reservationRepo) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := findOne(ctx, r.db, selectReservationSQL, scanReservation, id)
	return res, wrap(err, "select reservation")
}

func (r reservationRepo) FindByGuestUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	rs, err := findAll(ctx, r.db, selectReservationsByGuestSQL, scanReservation, userID)
	return rs, wrap(err, "select reservations by guest")
}

func (r reservationRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Reservation, error) {
	rs, err := findAll(ctx, r.db, selectReservationsByPropertySQL, scanReservation, propertyID)
	return rs, wrap(err, "select reservations by property")
}

func (r reservationRepo) Update(ctx context.Context, res domain.Reservation) (*domain.Reservation, error) {
	args := reservationArgs(res)
	args = append(args[1:], args[0])
	if _, err := r.db.ExecContext(ctx, updateReservationSQL, args...); err != nil {
		return nil, wrap(err, "update reservation")
	}
	return r.FindByID(ctx, res.ReservationID)
}

func (r reservationRepo) Delete(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := r.FindByID(ctx, id)
	if err != nil || res == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deleteReservationSQL, id); err != nil {
		return nil, wrap(err, "delete reservation")
	}
	return res, nil
}

/********** reviews **********/

func scanReview(s scanner) (domain.Review, error) {
	var rv domain.Review
	var comment sql.NullString
	if err := s.Scan(&rv.ReviewID, &rv.PropertyID, &rv.ReviewerUserID, &rv.Rating, &comment); err != nil {
		return domain.Review{}, err
	}
	rv.Comment = nullStr(comment)
	return rv, nil
}

func reviewArgs(rv domain.Review) []any {
	return []any{rv.ReviewID, rv.PropertyID, rv.ReviewerUserID, rv.Rating, valStr(rv.Comment)}
}

type reviewRepo struct{ db DBTX }

func (r reviewRepo) Create(ctx context.Context, rv domain.Review) (domain.Review, error) {
	_, err := r.db.ExecContext(ctx, insertReviewsPrefix+reviewTuple, reviewArgs(rv)...)
	return rv, wrap(err, "insert review")
}

func (r reviewRepo) CreateMany(ctx context.Context, rs []domain.Review) (int64, error) {
	n, err := insertMany(ctx, r.db, insertReviewsPrefix, reviewTuple, "review_id", rs, reviewArgs)
	return n, wrap(err, "insert reviews")
}

func (r reviewRepo) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := findOne(ctx, r.db, selectReviewSQL, scanReview, id)
	return rv, wrap(err, "select review")
}

func (r reviewRepo) FindByPropertyID(ctx context.Context, propertyID string) ([]domain.Review, error) {
	rs, err := findAll(ctx, r.db, selectReviewsByPropertySQL, scanReview, propertyID)
	return rs, wrap(err, "select reviews by property")
}

func (r reviewRepo) FindByReviewerUserID(ctx context.Context, userID string) ([]domain.Review, error) {
	rs, err := findAll(ctx, r.db, selectReviewsByReviewerSQL, scanReview, userID)
	return rs, wrap(err, "select reviews by reviewer")
}

func (r reviewRepo) Update(ctx context.Context, rv domain.Review) (*domain.Review, error) {
	if _, err := r.db.ExecContext(ctx, updateReviewSQL, rv.PropertyID, rv.ReviewerUserID, rv.Rating, valStr(rv.Comment), rv.ReviewID); err != nil {
		return nil, wrap(err, "update review")
	}
	return r.FindByID(ctx, rv.ReviewID)
}

func (r reviewRepo) Delete(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := r.FindByID(ctx, id)
	if err != nil || rv == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deleteReviewSQL, id); err != nil {
		return nil, wrap(err, "delete review")
	}
	return rv, nil
}

/********** payments **********/

func scanPayment(s scanner) (domain.Payment, error) {
	var p domain.Payment
	var status string
	var fee decimal.NullDecimal
	if err := s.Scan(&p.PaymentID, &p.ReservationID, &p.Amount, &p.Method, &status, &fee); err != nil {
		return domain.Payment{}, err
	}
	p.Status = domain.PaymentStatus(status)
	if fee.Valid {
		p.TransactionFee = &fee.Decimal
	}
	return p, nil
}

func paymentArgs(p domain.Payment) []any {
	fee := decimal.NullDecimal{}
	if p.TransactionFee != nil {
		fee = decimal.NewNullDecimal(*p.TransactionFee)
	}
	return []any{p.PaymentID, p.ReservationID, p.Amount, p.Method, string(p.Status), fee}
}

type paymentRepo struct{ db DBTX }

func (r paymentRepo) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	_, err := r.db.ExecContext(ctx, insertPaymentsPrefix+paymentTuple, paymentArgs(p)...)
	return p, wrap(err, "insert payment")
}

func (r paymentRepo) CreateMany(ctx context.Context, ps []domain.Payment) (int64, error) {
	n, err := insertMany(ctx, r.db, insertPaymentsPrefix, paymentTuple, "payment_id", ps, paymentArgs)
	return n, wrap(err, "insert payments")
}

func (r paymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := findOne(ctx, r.db, selectPaymentSQL, scanPayment, id)
	return p, wrap(err, "select payment")
}

func (r paymentRepo) FindByReservationID(ctx context.Context, reservationID string) ([]domain.Payment, error) {
	ps, err := findAll(ctx, r.db, selectPaymentsByReservationSQL, scanPayment, reservationID)
	return ps, wrap(err, "select payments by reservation")
}

func (r paymentRepo) Update(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	args := paymentArgs(p)
	args = append(args[1:], args[0])
	if _, err := r.db.ExecContext(ctx, updatePaymentSQL, args...); err != nil {
		return nil, wrap(err, "update payment")
	}
	return r.FindByID(ctx, p.PaymentID)
}

func (r paymentRepo) Delete(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, deletePaymentSQL, id); err != nil {
		return nil, wrap(err, "delete payment")
	}
	return p, nil
}
