package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// Store is the ledger-store port. The crdb adapter is the production
// implementation; tests use an in-memory fake. Every mutating method is
// atomic per entity, and Reserve in particular must perform its availability
// check and increment as one conditional write.
type Store interface {
	CreateItem(ctx context.Context, item domain.CatalogItem) error
	UpdateItem(ctx context.Context, item domain.CatalogItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error)
	ListItems(ctx context.Context) ([]domain.CatalogItem, error)

	// Reserve atomically claims one unit: it fails with
	// domain.ErrExhausted and writes nothing once purchase_count has
	// reached max_quantity.
	Reserve(ctx context.Context, itemID, guestID uuid.UUID, guestName string, now time.Time) (*domain.CatalogItem, error)

	CreateGuest(ctx context.Context, guest domain.Guest) error
	GetGuest(ctx context.Context, id uuid.UUID) (*domain.Guest, error)
	ListGuests(ctx context.Context) ([]domain.Guest, error)
	CountGuests(ctx context.Context) (total, confirmed int, err error)
	SetGuestMessage(ctx context.Context, guestID uuid.UUID, message string) error

	ListPledges(ctx context.Context) ([]domain.PledgeContribution, error)
	PledgeAggregate(ctx context.Context) (domain.PledgeAggregate, error)

	// Finalize commits the tail of a confirmation in one transaction:
	// the pledge row (when present), the guest cross-references guarded
	// by confirmed_at IS NULL, and the staged events.
	Finalize(ctx context.Context, guestID uuid.UUID, confirmedAt time.Time, giftID *uuid.UUID, giftName string, pledge *domain.PledgeContribution, events []domain.Event) error

	// StageEvent stores a single outbox event outside any caller
	// transaction, used by catalog mutations.
	StageEvent(ctx context.Context, event domain.Event) error
}

// Auditor records registry activity in the audit trail. Failures are logged
// and swallowed; the audit trail is advisory.
type Auditor interface {
	Record(ctx context.Context, action string, actorID uuid.UUID, data map[string]interface{}) error
}
