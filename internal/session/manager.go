package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// Manager keeps live guest sessions keyed by guest id. Sessions hold only
// selection state; durable writes happen exclusively through the ledger
// store at confirm time.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Open starts a session for an identified guest.
func (m *Manager) Open(guestID uuid.UUID, name, phone string) (*Session, error) {
	sess, err := Identify(guestID, name, phone)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[guestID] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *Manager) Get(guestID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[guestID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Close drops a finished session.
func (m *Manager) Close(guestID uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, guestID)
	m.mu.Unlock()
}
