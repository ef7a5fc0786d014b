package domain

import "github.com/google/uuid"

// Event is a registry fact staged in the outbox alongside the write that
// produced it (gift.reserved, pledge.recorded, guest.confirmed,
// catalog.item.created|updated|deleted).
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	Type          string
	Payload       []byte
}

func NewEvent(aggregateType string, aggregateID uuid.UUID, eventType string, payload []byte) Event {
	return Event{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       payload,
	}
}
