package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// Finalize commits confirmation step tail as one serializable transaction:
// pledge row, guest cross-references and staged events stand or fall
// together. The gift reservation, when any, has already committed through
// Reserve and is deliberately not part of this transaction.
func (r *Repository) Finalize(ctx context.Context, guestID uuid.UUID, confirmedAt time.Time, giftID *uuid.UUID, giftName string, pledge *domain.PledgeContribution, events []domain.Event) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var pledgeAmount *domain.Amount
		var pledgeID *uuid.UUID
		if pledge != nil {
			if err := r.InsertPledge(ctx, tx, *pledge); err != nil {
				return err
			}
			a := pledge.Amount
			id := pledge.ID
			pledgeAmount = &a
			pledgeID = &id
		}
		if err := r.FinalizeGuest(ctx, tx, guestID, confirmedAt, giftID, giftName, pledgeAmount, pledgeID); err != nil {
			return err
		}
		for _, ev := range events {
			rec := OutboxRecord{
				ID:            ev.ID,
				AggregateType: ev.AggregateType,
				AggregateID:   ev.AggregateID,
				EventType:     ev.Type,
				Payload:       ev.Payload,
				DedupeKey:     ev.ID.String(),
			}
			if err := r.InsertOutbox(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// StageEvent writes one outbox row in its own transaction.
func (r *Repository) StageEvent(ctx context.Context, ev domain.Event) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            ev.ID,
			AggregateType: ev.AggregateType,
			AggregateID:   ev.AggregateID,
			EventType:     ev.Type,
			Payload:       ev.Payload,
			DedupeKey:     ev.ID.String(),
		})
	})
}
