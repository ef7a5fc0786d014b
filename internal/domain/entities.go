package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of catalog sections shown to guests.
type Category string

const (
	CategoryKitchen    Category = "KITCHEN"
	CategoryBedroom    Category = "BEDROOM"
	CategoryLivingRoom Category = "LIVING_ROOM"
	CategoryBathroom   Category = "BATHROOM"
	CategoryAppliances Category = "APPLIANCES"
	CategoryDecor      Category = "DECOR"
	CategoryOther      Category = "OTHER"
)

// ParseCategory maps free-form input to a known category, defaulting to Other.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryKitchen, CategoryBedroom, CategoryLivingRoom,
		CategoryBathroom, CategoryAppliances, CategoryDecor:
		return Category(s)
	default:
		return CategoryOther
	}
}

type CatalogItem struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Image         string
	ExternalLink  string
	Category      Category
	AllowMultiple bool
	MaxQuantity   int
	PurchaseCount int
	Reserved      bool
	ReservedBy    string
	ReservedByID  *uuid.UUID
	ReservedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Exhausted reports whether every unit of the item has been claimed.
func (i CatalogItem) Exhausted() bool {
	return i.PurchaseCount >= i.MaxQuantity
}

type Guest struct {
	ID                   uuid.UUID
	Name                 string
	Phone                string
	Timestamp            time.Time
	ConfirmedAt          *time.Time
	GiftID               *uuid.UUID
	GiftName             string
	PledgeAmount         *Amount
	PledgeContributionID *uuid.UUID
	Message              string
}

// Confirmed reports whether the guest record has been finalized.
func (g Guest) Confirmed() bool {
	return g.ConfirmedAt != nil
}

// PledgeContribution is an immutable monetary-pledge record. Guest name and
// phone are denormalized so reports never need a join.
type PledgeContribution struct {
	ID         uuid.UUID
	GuestID    uuid.UUID
	GuestName  string
	GuestPhone string
	Amount     Amount
	Timestamp  time.Time
}

// PledgeAggregate is the derived (count, sum) over all contributions.
type PledgeAggregate struct {
	Count int
	Sum   Amount
}

func NewCatalogItem(name, description, image, link string, category Category, allowMultiple bool, maxQuantity int) CatalogItem {
	if !allowMultiple || maxQuantity < 1 {
		maxQuantity = 1
	}
	now := time.Now()
	return CatalogItem{
		ID:            uuid.New(),
		Name:          name,
		Description:   description,
		Image:         image,
		ExternalLink:  link,
		Category:      category,
		AllowMultiple: allowMultiple,
		MaxQuantity:   maxQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func NewGuest(name, phone string, now time.Time) Guest {
	return Guest{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Timestamp: now,
	}
}

func NewPledgeContribution(guestID uuid.UUID, guestName, guestPhone string, amount Amount, now time.Time) PledgeContribution {
	return PledgeContribution{
		ID:         uuid.New(),
		GuestID:    guestID,
		GuestName:  guestName,
		GuestPhone: guestPhone,
		Amount:     amount,
		Timestamp:  now,
	}
}
