package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

func ParseReservationStatus(s string) ReservationStatus {
	switch st := ReservationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return st
	}
	return ReservationPending
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

func ParsePaymentStatus(s string) PaymentStatus {
	switch st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case PaymentCompleted, PaymentFailed, PaymentRefunded:
		return st
	}
	return PaymentPending
}

type Reservation struct {
	ReservationID   string            `json:"reservation_id"`
	PropertyID      string            `json:"property_id"`
	GuestUserID     string            `json:"guest_user_id"`
	CheckIn         time.Time         `json:"check_in"`
	CheckOut        time.Time         `json:"check_out"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	GuestCount      int               `json:"guest_count"`
	Status          ReservationStatus `json:"status"`
	SpecialRequests *string           `json:"special_requests,omitempty"`
}

// Nights counts whole days between check-in and check-out.
func (r Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

type Payment struct {
	PaymentID      string           `json:"payment_id"`
	ReservationID  string           `json:"reservation_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Method         string           `json:"payment_method"`
	Status         PaymentStatus    `json:"status"`
	TransactionFee *decimal.Decimal `json:"transaction_fee,omitempty"`
}
