package registry_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// fakeStore is an in-memory ledger with the same atomicity contract as the
// real adapter: Reserve checks and increments under one lock, Finalize
// applies its writes all-or-nothing guarded by confirmed_at.
type fakeStore struct {
	mu      sync.Mutex
	items   map[uuid.UUID]domain.CatalogItem
	guests  map[uuid.UUID]domain.Guest
	pledges []domain.PledgeContribution
	events  []domain.Event

	failFinalize error
	writes       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:  make(map[uuid.UUID]domain.CatalogItem),
		guests: make(map[uuid.UUID]domain.Guest),
	}
}

func (s *fakeStore) CreateItem(_ context.Context, item domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	s.writes++
	return nil
}

func (s *fakeStore) UpdateItem(_ context.Context, item domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	// Reservation-owned fields are not writable through this path.
	item.PurchaseCount = existing.PurchaseCount
	item.Reserved = existing.Reserved
	item.ReservedBy = existing.ReservedBy
	item.ReservedByID = existing.ReservedByID
	item.ReservedAt = existing.ReservedAt
	s.items[item.ID] = item
	s.writes++
	return nil
}

func (s *fakeStore) DeleteItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	s.writes++
	return nil
}

func (s *fakeStore) GetItem(_ context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (s *fakeStore) ListItems(_ context.Context) ([]domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *fakeStore) Reserve(_ context.Context, itemID, guestID uuid.UUID, guestName string, now time.Time) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if item.PurchaseCount >= item.MaxQuantity {
		return nil, domain.ErrExhausted
	}
	item.PurchaseCount++
	item.Reserved = item.PurchaseCount >= item.MaxQuantity
	item.ReservedBy = guestName
	id := guestID
	item.ReservedByID = &id
	t := now
	item.ReservedAt = &t
	s.items[itemID] = item
	s.writes++
	return &item, nil
}

func (s *fakeStore) CreateGuest(_ context.Context, guest domain.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guests[guest.ID] = guest
	s.writes++
	return nil
}

func (s *fakeStore) GetGuest(_ context.Context, id uuid.UUID) (*domain.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, ok := s.guests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &guest, nil
}

func (s *fakeStore) ListGuests(_ context.Context) ([]domain.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		out = append(out, g)
	}
	return out, nil
}

func (s *fakeStore) CountGuests(_ context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	confirmed := 0
	for _, g := range s.guests {
		if g.Confirmed() {
			confirmed++
		}
	}
	return len(s.guests), confirmed, nil
}

func (s *fakeStore) SetGuestMessage(_ context.Context, guestID uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, ok := s.guests[guestID]
	if !ok {
		return domain.ErrNotFound
	}
	if !guest.Confirmed() {
		return domain.ErrInvalidInput
	}
	if guest.Message != "" {
		return domain.ErrMessageAlreadySet
	}
	guest.Message = message
	s.guests[guestID] = guest
	s.writes++
	return nil
}

func (s *fakeStore) ListPledges(_ context.Context) ([]domain.PledgeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PledgeContribution(nil), s.pledges...), nil
}

func (s *fakeStore) PledgeAggregate(_ context.Context) (domain.PledgeAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := domain.PledgeAggregate{Count: len(s.pledges)}
	for _, p := range s.pledges {
		agg.Sum += p.Amount
	}
	return agg, nil
}

func (s *fakeStore) Finalize(_ context.Context, guestID uuid.UUID, confirmedAt time.Time, giftID *uuid.UUID, giftName string, pledge *domain.PledgeContribution, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFinalize != nil {
		return s.failFinalize
	}
	guest, ok := s.guests[guestID]
	if !ok {
		return domain.ErrNotFound
	}
	if guest.Confirmed() {
		return domain.ErrAlreadyConfirmed
	}
	if pledge != nil {
		s.pledges = append(s.pledges, *pledge)
		a := pledge.Amount
		id := pledge.ID
		guest.PledgeAmount = &a
		guest.PledgeContributionID = &id
	}
	t := confirmedAt
	guest.ConfirmedAt = &t
	guest.GiftID = giftID
	guest.GiftName = giftName
	s.guests[guestID] = guest
	s.events = append(s.events, events...)
	s.writes++
	return nil
}

func (s *fakeStore) StageEvent(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.writes++
	return nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
