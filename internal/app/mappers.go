package app

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rentals/internal/domain"
)

/********** feed columns **********/

const (
	colUserID        = "user_id"
	colUserName      = "user_name"
	colUserEmail     = "user_email"
	colUserPhone     = "user_phone"
	colUserVerified  = "user_verified"
	colUserRole      = "user_role"
	colPropID        = "prop_id"
	colPropTitle     = "prop_title"
	colPropDesc      = "prop_description"
	colPropAddress   = "prop_address"
	colPropCity      = "prop_city"
	colPropCountry   = "prop_country"
	colPropPrice     = "prop_price"
	colPropMaxGuests = "prop_max_guests"
	colPropType      = "prop_type"
	colPropOwner     = "prop_owner_user_id"
	colPropAmenities = "prop_amenities"
	colResID         = "res_id"
	colResCheckIn    = "res_check_in"
	colResCheckOut   = "res_check_out"
	colResGuests     = "res_guests"
	colResTotal      = "res_total_price"
	colResStatus     = "res_status"
	colResGuestUser  = "res_guest_user_id"
	colResPropID     = "res_prop_id"
	colResRequests   = "res_special_requests"
	colRevID         = "rev_id"
	colRevRating     = "rev_rating"
	colRevComment    = "rev_comment"
	colRevReviewer   = "rev_reviewer_user_id"
	colRevPropID     = "rev_prop_id"
	colPayID         = "pay_id"
	colPayAmount     = "pay_amount"
	colPayMethod     = "pay_method"
	colPayStatus     = "pay_status"
	colPayResID      = "pay_res_id"
	colPayFee        = "pay_transaction_fee"
	colPhotoID       = "photo_id"
	colPhotoURL      = "photo_url"
	colPhotoCaption  = "photo_caption"
	colPhotoPropID   = "photo_prop_id"
	colPhotoRoomType = "photo_room_type"
)

const (
	roleOwner = "PropertyOwner"
	roleGuest = "Guest"

	defaultTitle         = "Untitled Property"
	defaultPaymentMethod = "unknown"
)

/********** tiny helpers **********/

func optional(r domain.Row, col string) *string {
	if v, ok := r.Get(col); ok {
		return &v
	}
	return nil
}

func orDefault(r domain.Row, col, def string) string {
	if v, ok := r.Get(col); ok {
		return v
	}
	return def
}

// placeholderName is used when a user row has no name.
func placeholderName(userID string) string {
	n := 0
	for i := range userID {
		if n == 5 {
			return "User " + userID[:i]
		}
		n++
	}
	return "User " + userID
}

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

func cleanNumber(s string) string {
	return strings.TrimSpace(currencyStripper.Replace(strings.TrimSpace(s)))
}

// parseDecimal returns nil for absent or non-numeric input.
func parseDecimal(v string, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(cleanNumber(v))
	if err != nil {
		return nil
	}
	return &d
}

func decimalCol(r domain.Row, col string, def decimal.Decimal) decimal.Decimal {
	if d := parseDecimal(r.Get(col)); d != nil {
		return *d
	}
	return def
}

// intCol accepts integer or decimal text; decimals are truncated toward zero.
func intCol(r domain.Row, col string, def int) int {
	v, ok := r.Get(col)
	if !ok {
		return def
	}
	s := cleanNumber(v)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && math.Abs(f) < math.MaxInt32 {
		return int(f)
	}
	return def
}

func floatCol(r domain.Row, col string, def float64) float64 {
	v, ok := r.Get(col)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(cleanNumber(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// parseBool is true only for a case-insensitive "true".
func parseBool(v string, ok bool) bool {
	return ok && strings.EqualFold(strings.TrimSpace(v), "true")
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate tries each accepted layout; dates without a zone are UTC.
func parseDate(v string, ok bool) (time.Time, bool) {
	if !ok {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// splitList splits on commas, trims entries and drops empty ones.
func splitList(v string, ok bool) []string {
	out := []string{}
	if !ok {
		return out
	}
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" && utf8.ValidString(s) {
			out = append(out, s)
		}
	}
	return out
}

/********** row -> entity **********/

func mapUser(r domain.Row) domain.User {
	id, _ := r.Get(colUserID)
	email, _ := r.Get(colUserEmail)
	name, ok := r.Get(colUserName)
	if !ok || strings.TrimSpace(name) == "" {
		name = placeholderName(id)
	}
	return domain.User{
		UserID:   id,
		Name:     name,
		Email:    strings.ToLower(email),
		Phone:    optional(r, colUserPhone),
		Verified: parseBool(r.Get(colUserVerified)),
	}
}

func mapProperty(r domain.Row) StagedProperty {
	id, _ := r.Get(colPropID)
	owner, _ := r.Get(colPropOwner)
	pt, _ := r.Get(colPropType)
	return StagedProperty{
		Property: domain.Property{
			PropertyID:    id,
			Title:         orDefault(r, colPropTitle, defaultTitle),
			Description:   orDefault(r, colPropDesc, ""),
			AddressLine1:  optional(r, colPropAddress),
			City:          optional(r, colPropCity),
			Country:       optional(r, colPropCountry),
			PricePerNight: decimalCol(r, colPropPrice, decimal.Zero),
			MaxGuests:     intCol(r, colPropMaxGuests, 1),
			Type:          domain.ParsePropertyType(pt),
			Amenities:     splitList(r.Get(colPropAmenities)),
		},
		OwnerUserID: owner,
	}
}

func mapPhoto(r domain.Row) domain.Photo {
	id, _ := r.Get(colPhotoID)
	prop, _ := r.Get(colPhotoPropID)
	url, _ := r.Get(colPhotoURL)
	return domain.Photo{
		PhotoID:    id,
		PropertyID: prop,
		ImageURL:   url,
		Caption:    optional(r, colPhotoCaption),
		RoomType:   optional(r, colPhotoRoomType),
	}
}

// mapReservation does not check the date order; the reconciler does.
func mapReservation(r domain.Row, checkIn, checkOut time.Time) domain.Reservation {
	id, _ := r.Get(colResID)
	guest, _ := r.Get(colResGuestUser)
	prop, _ := r.Get(colResPropID)
	status, _ := r.Get(colResStatus)
	return domain.Reservation{
		ReservationID:   id,
		PropertyID:      prop,
		GuestUserID:     guest,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		TotalPrice:      decimalCol(r, colResTotal, decimal.Zero),
		GuestCount:      intCol(r, colResGuests, 1),
		Status:          domain.ParseReservationStatus(status),
		SpecialRequests: optional(r, colResRequests),
	}
}

func mapReview(r domain.Row) domain.Review {
	id, _ := r.Get(colRevID)
	reviewer, _ := r.Get(colRevReviewer)
	prop, _ := r.Get(colRevPropID)
	return domain.Review{
		ReviewID:       id,
		PropertyID:     prop,
		ReviewerUserID: reviewer,
		Rating:         floatCol(r, colRevRating, 0),
		Comment:        optional(r, colRevComment),
	}
}

func mapPayment(r domain.Row) domain.Payment {
	id, _ := r.Get(colPayID)
	res, _ := r.Get(colPayResID)
	status, _ := r.Get(colPayStatus)
	return domain.Payment{
		PaymentID:      id,
		ReservationID:  res,
		Amount:         decimalCol(r, colPayAmount, decimal.Zero),
		Method:         orDefault(r, colPayMethod, defaultPaymentMethod),
		Status:         domain.ParsePaymentStatus(status),
		TransactionFee: parseDecimal(r.Get(colPayFee)),
	}
}
