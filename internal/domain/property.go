package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyHouse     PropertyType = "HOUSE"
	PropertyVilla     PropertyType = "VILLA"
	PropertyCabin     PropertyType = "CABIN"
	PropertyCondo     PropertyType = "CONDO"
	PropertyOther     PropertyType = "OTHER"
)

// ParsePropertyType upper-cases s; anything outside the known set is OTHER.
func ParsePropertyType(s string) PropertyType {
	switch t := PropertyType(strings.ToUpper(strings.TrimSpace(s))); t {
	case PropertyApartment, PropertyHouse, PropertyVilla, PropertyCabin, PropertyCondo:
		return t
	}
	return PropertyOther
}

// Property is a rental listing. OwnerID is the store-assigned PropertyOwner.ID,
// never the owner's user id.
type Property struct {
	PropertyID    string          `json:"property_id"`
	OwnerID       int64           `json:"owner_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	AddressLine1  *string         `json:"address_line1,omitempty"`
	City          *string         `json:"city,omitempty"`
	Country       *string         `json:"country,omitempty"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	MaxGuests     int             `json:"max_guests"`
	Type          PropertyType    `json:"property_type"`
	Amenities     []string        `json:"amenities"`
}

type Photo struct {
	PhotoID    string  `json:"photo_id"`
	PropertyID string  `json:"property_id"`
	ImageURL   string  `json:"image_url"`
	Caption    *string `json:"caption,omitempty"`
	RoomType   *string `json:"room_type,omitempty"`
}
