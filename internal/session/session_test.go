package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

func openBrowsing(t *testing.T) *Session {
	t.Helper()
	s, err := Identify(uuid.New(), "Lia Campos", "(11) 98765-4321")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	return s
}

func availableItem() domain.CatalogItem {
	return domain.NewCatalogItem("Jogo de Panelas", "", "", "", domain.CategoryKitchen, false, 1)
}

func TestIdentify_RequiresNameAndPhone(t *testing.T) {
	if _, err := Identify(uuid.New(), "  ", "(11) 98765-4321"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank name: want ErrInvalidInput, got %v", err)
	}
	if _, err := Identify(uuid.New(), "Lia", "12"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("short phone: want ErrInvalidInput, got %v", err)
	}
	s, err := Identify(uuid.New(), "Lia", "(11) 98765-4321")
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentState() != StateIdentified {
		t.Errorf("want Identified, got %s", s.CurrentState())
	}
}

func TestAdvance_OnlyFromIdentified(t *testing.T) {
	s := openBrowsing(t)
	if err := s.Advance(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("second advance: want ErrInvalidInput, got %v", err)
	}
}

func TestSelectItem(t *testing.T) {
	s := openBrowsing(t)
	if err := s.SelectItem(availableItem()); err != nil {
		t.Fatal(err)
	}
	if s.CurrentState() != StateSelected || s.CurrentSelection().ItemID == nil {
		t.Errorf("selection not recorded: state=%s", s.CurrentState())
	}

	// Picking a different item replaces the previous pick.
	other := availableItem()
	if err := s.SelectItem(other); err != nil {
		t.Fatal(err)
	}
	if *s.CurrentSelection().ItemID != other.ID {
		t.Error("second selection did not replace the first")
	}
}

func TestSelectItem_RejectsExhausted(t *testing.T) {
	s := openBrowsing(t)
	item := availableItem()
	item.PurchaseCount = item.MaxQuantity
	item.Reserved = true
	if err := s.SelectItem(item); !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("want ErrExhausted, got %v", err)
	}
	if s.CurrentState() != StateBrowsing {
		t.Errorf("state should not advance on rejection, got %s", s.CurrentState())
	}
}

func TestSelectPledge_AlongsideItem(t *testing.T) {
	s := openBrowsing(t)
	if err := s.SelectItem(availableItem()); err != nil {
		t.Fatal(err)
	}
	amount, _ := domain.ParseAmount("75.00")
	if err := s.SelectPledge(amount); err != nil {
		t.Fatal(err)
	}
	if s.CurrentSelection().ItemID == nil || s.CurrentSelection().PledgeAmount == nil {
		t.Error("gift and pledge selections should coexist")
	}
}

func TestDeselect_RevertsToBrowsing(t *testing.T) {
	s := openBrowsing(t)
	amount, _ := domain.ParseAmount("20.00")
	if err := s.SelectItem(availableItem()); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectPledge(amount); err != nil {
		t.Fatal(err)
	}

	s.DeselectItem()
	if s.CurrentState() != StateSelected {
		t.Errorf("pledge still held, want Selected, got %s", s.CurrentState())
	}
	s.DeselectPledge()
	if s.CurrentState() != StateBrowsing {
		t.Errorf("nothing selected, want Browsing, got %s", s.CurrentState())
	}
}

// Two tabs (or a retried request) hammering the same session must never
// leave state and selection disagreeing.
func TestSession_ConcurrentSelection(t *testing.T) {
	s := openBrowsing(t)
	item := availableItem()
	amount, _ := domain.ParseAmount("10.00")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch i % 4 {
				case 0:
					s.SelectItem(item)
				case 1:
					s.DeselectItem()
				case 2:
					s.SelectPledge(amount)
				case 3:
					s.DeselectPledge()
				}
			}
		}(i)
	}
	wg.Wait()

	state, sel := s.CurrentState(), s.CurrentSelection()
	if sel.Empty() && state != StateBrowsing {
		t.Errorf("empty selection but state %s", state)
	}
	if !sel.Empty() && state != StateSelected {
		t.Errorf("live selection but state %s", state)
	}
}

func TestMarkConfirmed(t *testing.T) {
	s := openBrowsing(t)
	if err := s.MarkConfirmed(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("confirm without selection: want ErrInvalidInput, got %v", err)
	}
	if err := s.SelectItem(availableItem()); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkConfirmed(); err != nil {
		t.Fatal(err)
	}
	if s.CurrentState() != StateConfirmed || !s.CurrentSelection().Empty() {
		t.Errorf("want terminal Confirmed with cleared selection, got %s", s.CurrentState())
	}
	if err := s.SelectItem(availableItem()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("selection after confirm: want ErrInvalidInput, got %v", err)
	}
}
