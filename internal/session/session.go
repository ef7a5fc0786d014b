package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// State is the guest's position in the RSVP flow.
type State int

const (
	StateAnonymous State = iota
	StateIdentified
	StateBrowsing
	StateSelected
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "ANONYMOUS"
	case StateIdentified:
		return "IDENTIFIED"
	case StateBrowsing:
		return "BROWSING"
	case StateSelected:
		return "SELECTED"
	case StateConfirmed:
		return "CONFIRMED"
	}
	return "UNKNOWN"
}

// Session tracks one guest's flow through identify, browse, select and
// confirm. Selection state is session-local until Confirm commits it.
// Methods are safe for concurrent use: a guest may have two tabs open or a
// client may retry a request that is still in flight.
type Session struct {
	GuestID   uuid.UUID
	GuestName string

	mu        sync.Mutex
	state     State
	selection domain.Selection
}

// Identify validates the guest's identifying fields and opens a session in
// the Identified state. Name and phone are collected once and immutable
// afterwards.
func Identify(guestID uuid.UUID, name, phone string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidInput
	}
	if domain.NormalizePhone(phone) == "" {
		return nil, domain.ErrInvalidInput
	}
	return &Session{GuestID: guestID, GuestName: name, state: StateIdentified}, nil
}

// CurrentState returns the state at the time of the call.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentSelection returns a copy of the session-local selection.
func (s *Session) CurrentSelection() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Advance acknowledges the informational step. No data effect.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdentified {
		return domain.ErrInvalidInput
	}
	s.state = StateBrowsing
	return nil
}

// SelectItem records a catalog choice in session state. The item's current
// availability is checked up front as a courtesy; the Reservation Engine
// re-checks atomically at confirm time.
func (s *Session) SelectItem(item domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBrowsing && s.state != StateSelected {
		return domain.ErrInvalidInput
	}
	if item.Exhausted() {
		return domain.ErrExhausted
	}
	id := item.ID
	s.selection.ItemID = &id
	s.state = StateSelected
	return nil
}

// SelectPledge records a pledge amount in session state.
func (s *Session) SelectPledge(amount domain.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBrowsing && s.state != StateSelected {
		return domain.ErrInvalidInput
	}
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	a := amount
	s.selection.PledgeAmount = &a
	s.state = StateSelected
	return nil
}

// DeselectItem and DeselectPledge let the guest change their mind any number
// of times before confirming.
func (s *Session) DeselectItem() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ItemID = nil
	s.syncState()
}

func (s *Session) DeselectPledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.PledgeAmount = nil
	s.syncState()
}

// syncState is called with mu held.
func (s *Session) syncState() {
	if s.state != StateBrowsing && s.state != StateSelected {
		return
	}
	if s.selection.Empty() {
		s.state = StateBrowsing
	} else {
		s.state = StateSelected
	}
}

// MarkConfirmed moves the session to its terminal state and clears the
// session-local selection. Called only after the orchestrator succeeds; on
// failure the session stays in Selected with the error surfaced upstream.
func (s *Session) MarkConfirmed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelected {
		return domain.ErrInvalidInput
	}
	s.state = StateConfirmed
	s.selection = domain.Selection{}
	return nil
}
