package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// Guests persists guest identities. Name and phone are collected exactly
// once at session start and immutable afterwards.
type Guests struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
	logger  observability.Logger
}

func NewGuests(store Store, timeout time.Duration, logger observability.Logger) *Guests {
	return &Guests{store: store, timeout: timeout, now: time.Now, logger: logger}
}

// Identify validates the identifying fields, normalizes the phone out of
// its display mask and creates the guest record.
func (g *Guests) Identify(ctx context.Context, name, phone string) (*domain.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	normalized := domain.NormalizePhone(phone)
	if normalized == "" {
		return nil, domain.ErrInvalidInput
	}

	guest := domain.NewGuest(name, normalized, g.now())

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.store.CreateGuest(ctx, guest); err != nil {
		return nil, classifyStoreErr(err)
	}

	g.logger.WithField("guest_id", guest.ID.String()).Info("guest identified")
	return &guest, nil
}

func (g *Guests) Get(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	guest, err := g.store.GetGuest(ctx, id)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return guest, nil
}

func (g *Guests) List(ctx context.Context) ([]domain.Guest, error) {
	guests, err := g.store.ListGuests(ctx)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return guests, nil
}

func (g *Guests) Counts(ctx context.Context) (total, confirmed int, err error) {
	total, confirmed, err = g.store.CountGuests(ctx)
	if err != nil {
		return 0, 0, classifyStoreErr(err)
	}
	return total, confirmed, nil
}
