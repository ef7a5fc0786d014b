package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

func TestManager_OpenGetClose(t *testing.T) {
	m := NewManager()
	guestID := uuid.New()

	if _, err := m.Get(guestID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown guest: want ErrNotFound, got %v", err)
	}

	sess, err := m.Open(guestID, "Lia Campos", "(11) 98765-4321")
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(guestID)
	if err != nil {
		t.Fatal(err)
	}
	if got != sess {
		t.Error("Get returned a different session than Open")
	}

	m.Close(guestID)
	if _, err := m.Get(guestID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("closed session: want ErrNotFound, got %v", err)
	}
}

func TestManager_OpenRejectsInvalidGuest(t *testing.T) {
	m := NewManager()
	if _, err := m.Open(uuid.New(), "", "(11) 98765-4321"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput, got %v", err)
	}
}
