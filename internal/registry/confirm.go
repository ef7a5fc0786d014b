package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// Step names the stage of a confirmation attempt that produced an error.
type Step string

const (
	StepPending         Step = "PENDING"
	StepReservingGift   Step = "RESERVING_GIFT"
	StepRecordingPledge Step = "RECORDING_PLEDGE"
	StepUpdatingGuest   Step = "UPDATING_GUEST"
)

// ConfirmError carries which sub-step of the attempt failed. When the gift
// reservation committed before a later step failed, the reservation stands;
// that partial result is part of the contract, not rolled back.
type ConfirmError struct {
	Step Step
	Err  error
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("confirmation failed at %s: %v", e.Step, e.Err)
}

func (e *ConfirmError) Unwrap() error { return e.Err }

// Receipt is the successful confirmation result.
type Receipt struct {
	Guest  domain.Guest
	Item   *domain.CatalogItem
	Pledge *domain.PledgeContribution
}

// Orchestrator drives a single confirmation attempt through its stages:
// Pending -> ReservingGift? -> RecordingPledge? -> UpdatingGuest ->
// Confirmed, or Failed at whichever stage errors first. It never retries;
// callers retry the whole Confirm, which the confirmed_at guard makes safe.
type Orchestrator struct {
	store   Store
	engine  *Engine
	ledger  *Ledger
	audit   Auditor
	timeout time.Duration
	now     func() time.Time
	logger  observability.Logger
}

func NewOrchestrator(store Store, engine *Engine, ledger *Ledger, audit Auditor, timeout time.Duration, logger observability.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		engine:  engine,
		ledger:  ledger,
		audit:   audit,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

func (o *Orchestrator) Confirm(ctx context.Context, guestID uuid.UUID, sel domain.Selection) (*Receipt, error) {
	receipt, err := o.confirm(ctx, guestID, sel)
	if err != nil {
		var ce *ConfirmError
		if errors.As(err, &ce) {
			observability.ConfirmationsTotal.WithLabelValues("failed", string(ce.Step)).Inc()
		} else {
			observability.ConfirmationsTotal.WithLabelValues("failed", "unknown").Inc()
		}
		return nil, err
	}
	observability.ConfirmationsTotal.WithLabelValues("confirmed", "").Inc()
	return receipt, nil
}

func (o *Orchestrator) confirm(ctx context.Context, guestID uuid.UUID, sel domain.Selection) (*Receipt, error) {
	// Pending: validate the selection and the guest.
	if sel.Empty() {
		return nil, &ConfirmError{Step: StepPending, Err: domain.ErrNoSelection}
	}

	loadCtx, cancel := context.WithTimeout(ctx, o.timeout)
	guest, err := o.store.GetGuest(loadCtx, guestID)
	cancel()
	if err != nil {
		return nil, &ConfirmError{Step: StepPending, Err: classifyStoreErr(err)}
	}
	if guest.Confirmed() {
		return nil, &ConfirmError{Step: StepPending, Err: domain.ErrAlreadyConfirmed}
	}

	var (
		item     *domain.CatalogItem
		giftID   *uuid.UUID
		giftName string
		events   []domain.Event
	)

	// ReservingGift: the one step that commits independently. On
	// Exhausted nothing has been written and the attempt stops here.
	if sel.HasGift() {
		item, err = o.engine.Reserve(ctx, *sel.ItemID, guest.ID, guest.Name)
		if err != nil {
			return nil, &ConfirmError{Step: StepReservingGift, Err: err}
		}
		id := item.ID
		giftID = &id
		giftName = item.Name
		payload, _ := json.Marshal(map[string]interface{}{
			"item_id":        item.ID,
			"guest_id":       guest.ID,
			"purchase_count": item.PurchaseCount,
			"reserved":       item.Reserved,
		})
		events = append(events, domain.NewEvent("gift", item.ID, "gift.reserved", payload))
	}

	// RecordingPledge: validate and build the row; the insert itself is
	// part of the finalize transaction below.
	var pledge *domain.PledgeContribution
	if sel.HasPledge() {
		pledge, err = o.ledger.Prepare(*guest, *sel.PledgeAmount)
		if err != nil {
			return nil, &ConfirmError{Step: StepRecordingPledge, Err: err}
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"contribution_id": pledge.ID,
			"guest_id":        guest.ID,
			"amount":          pledge.Amount.String(),
		})
		events = append(events, domain.NewEvent("pledge", pledge.ID, "pledge.recorded", payload))
	}

	// UpdatingGuest: pledge row, guest cross-references and events in one
	// transaction. A committed reservation is not compensated when this
	// fails; the error says so and the caller may retry the whole call.
	confirmedAt := o.now()
	guestPayload, _ := json.Marshal(map[string]interface{}{
		"guest_id":     guest.ID,
		"gift_id":      giftID,
		"confirmed_at": confirmedAt.Format(time.RFC3339),
	})
	events = append(events, domain.NewEvent("guest", guest.ID, "guest.confirmed", guestPayload))

	finCtx, cancel := context.WithTimeout(ctx, o.timeout)
	err = o.store.Finalize(finCtx, guest.ID, confirmedAt, giftID, giftName, pledge, events)
	cancel()
	if err != nil {
		return nil, &ConfirmError{Step: StepUpdatingGuest, Err: classifyStoreErr(err)}
	}

	guest.ConfirmedAt = &confirmedAt
	guest.GiftID = giftID
	guest.GiftName = giftName
	if pledge != nil {
		a := pledge.Amount
		id := pledge.ID
		guest.PledgeAmount = &a
		guest.PledgeContributionID = &id
	}

	if o.audit != nil {
		data := map[string]interface{}{"gift_name": giftName}
		if pledge != nil {
			data["pledge_amount"] = pledge.Amount.String()
		}
		if err := o.audit.Record(ctx, "guest.confirmed", guest.ID, data); err != nil {
			o.logger.WithField("guest_id", guest.ID.String()).Warn("audit write failed: ", err)
		}
	}

	o.logger.WithField("guest_id", guest.ID.String()).Info("confirmation committed")
	return &Receipt{Guest: *guest, Item: item, Pledge: pledge}, nil
}

// AttachMessage adds the single post-confirmation note to a guest record.
func (o *Orchestrator) AttachMessage(ctx context.Context, guestID uuid.UUID, message string) error {
	if message == "" {
		return domain.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return classifyStoreErr(o.store.SetGuestMessage(ctx, guestID, message))
}
