package registry

import (
	"context"
	"time"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// AggregateCache holds the most recent (count, sum) snapshot for cheap
// dashboard reads. The redis adapter implements it; a miss falls back to
// the ledger.
type AggregateCache interface {
	GetPledgeAggregate(ctx context.Context) (*domain.PledgeAggregate, error)
	SetPledgeAggregate(ctx context.Context, agg domain.PledgeAggregate, ttl time.Duration) error
}

// Ledger owns pledge contributions. Records are append-only and immutable;
// the derived aggregate is computed from the persisted rows, never
// maintained incrementally.
type Ledger struct {
	store  Store
	cache  AggregateCache
	now    func() time.Time
	logger observability.Logger
}

func NewLedger(store Store, cache AggregateCache, logger observability.Logger) *Ledger {
	return &Ledger{store: store, cache: cache, now: time.Now, logger: logger}
}

// Prepare validates the pledge and builds the immutable contribution record.
// The row is inserted by the confirmation transaction, which guarantees at
// most one insert per confirmation attempt.
func (l *Ledger) Prepare(guest domain.Guest, amount domain.Amount) (*domain.PledgeContribution, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	p := domain.NewPledgeContribution(guest.ID, guest.Name, guest.Phone, amount, l.now())
	return &p, nil
}

// Aggregate returns (count, sum), preferring the cached snapshot. Staleness
// is bounded by the aggregate worker's refresh interval and acceptable for
// reporting.
func (l *Ledger) Aggregate(ctx context.Context) (domain.PledgeAggregate, error) {
	if l.cache != nil {
		if cached, err := l.cache.GetPledgeAggregate(ctx); err == nil && cached != nil {
			return *cached, nil
		}
	}
	agg, err := l.store.PledgeAggregate(ctx)
	if err != nil {
		return domain.PledgeAggregate{}, classifyStoreErr(err)
	}
	return agg, nil
}

// List returns every contribution for reporting.
func (l *Ledger) List(ctx context.Context) ([]domain.PledgeContribution, error) {
	pledges, err := l.store.ListPledges(ctx)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return pledges, nil
}
