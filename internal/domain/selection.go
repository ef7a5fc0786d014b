package domain

import "github.com/google/uuid"

// Selection is what a guest carries into confirmation: a catalog item, a
// monetary pledge, or both. It lives in session-local state and is never
// persisted before confirm.
type Selection struct {
	ItemID       *uuid.UUID
	PledgeAmount *Amount
}

func (s Selection) Empty() bool {
	return s.ItemID == nil && s.PledgeAmount == nil
}

func (s Selection) HasGift() bool   { return s.ItemID != nil }
func (s Selection) HasPledge() bool { return s.PledgeAmount != nil }
