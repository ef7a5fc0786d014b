package registry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// Engine performs gift reservations. All correctness comes from the store's
// atomic conditional increment; the engine adds validation, timeouts and
// observability around it.
type Engine struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
	logger  observability.Logger
}

func NewEngine(store Store, timeout time.Duration, logger observability.Logger) *Engine {
	return &Engine{store: store, timeout: timeout, now: time.Now, logger: logger}
}

// Reserve claims one unit of the item for the guest and returns the
// post-update snapshot. Fails with domain.ErrExhausted, writing nothing,
// when the item has no units left. An item with allowMultiple=false is
// stored with max_quantity=1, so no special case is needed here.
func (e *Engine) Reserve(ctx context.Context, itemID, guestID uuid.UUID, guestName string) (*domain.CatalogItem, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	item, err := e.store.Reserve(ctx, itemID, guestID, guestName, e.now())
	if err != nil {
		observability.ReservationsTotal.WithLabelValues(reserveOutcome(err)).Inc()
		return nil, classifyStoreErr(err)
	}

	observability.ReservationsTotal.WithLabelValues("ok").Inc()
	e.logger.WithField("item_id", item.ID.String()).
		WithField("guest_id", guestID.String()).
		WithField("purchase_count", item.PurchaseCount).
		Info("gift reserved")
	return item, nil
}

func reserveOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrExhausted):
		return "exhausted"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// classifyStoreErr maps anything that is not a domain precondition failure
// to the transient StoreUnavailable bucket, keeping the original cause in
// the chain. A rejected conditional update on the item row means Exhausted
// and passes through untouched.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrExhausted),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyConfirmed),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrMessageAlreadySet):
		return err
	default:
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}
}
