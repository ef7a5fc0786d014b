package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

const guestColumns = `id, name, phone, created_at, confirmed_at, gift_id,
		gift_name, pledge_amount_cents, pledge_contribution_id, message`

func (r *Repository) CreateGuest(ctx context.Context, guest domain.Guest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO guests (id, name, phone, created_at)
		VALUES ($1, $2, $3, $4)
	`, guest.ID, guest.Name, guest.Phone, guest.Timestamp)
	return err
}

func (r *Repository) GetGuest(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+guestColumns+` FROM guests WHERE id = $1
	`, id)
	guest, err := scanGuest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return guest, err
}

func (r *Repository) ListGuests(ctx context.Context) ([]domain.Guest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+guestColumns+` FROM guests ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []domain.Guest
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, *guest)
	}
	return guests, rows.Err()
}

func (r *Repository) CountGuests(ctx context.Context) (total, confirmed int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(confirmed_at) FROM guests
	`).Scan(&total, &confirmed)
	return total, confirmed, err
}

// FinalizeGuest writes the confirmation cross-references. The where-clause on
// confirmed_at makes the write the idempotence enforcement point: a retry
// after a committed confirmation matches zero rows.
func (r *Repository) FinalizeGuest(ctx context.Context, tx pgx.Tx, guestID uuid.UUID, confirmedAt time.Time, giftID *uuid.UUID, giftName string, pledgeAmount *domain.Amount, pledgeID *uuid.UUID) error {
	var cents *int64
	if pledgeAmount != nil {
		c := pledgeAmount.Cents()
		cents = &c
	}
	result, err := tx.Exec(ctx, `
		UPDATE guests
		SET confirmed_at = $2, gift_id = $3, gift_name = $4,
		    pledge_amount_cents = $5, pledge_contribution_id = $6
		WHERE id = $1 AND confirmed_at IS NULL
	`, guestID, confirmedAt, giftID, giftName, cents, pledgeID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlreadyConfirmed
	}
	return nil
}

// SetGuestMessage attaches the single post-confirmation note. The condition
// keeps the write first-wins under duplicate submission.
func (r *Repository) SetGuestMessage(ctx context.Context, guestID uuid.UUID, message string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE guests SET message = $2
		WHERE id = $1 AND confirmed_at IS NOT NULL AND message = ''
	`, guestID, message)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		guest, getErr := r.GetGuest(ctx, guestID)
		if getErr != nil {
			return getErr
		}
		if !guest.Confirmed() {
			return domain.ErrInvalidInput
		}
		return domain.ErrMessageAlreadySet
	}
	return nil
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var guest domain.Guest
	var cents *int64
	err := row.Scan(&guest.ID, &guest.Name, &guest.Phone, &guest.Timestamp,
		&guest.ConfirmedAt, &guest.GiftID, &guest.GiftName, &cents,
		&guest.PledgeContributionID, &guest.Message)
	if err != nil {
		return nil, err
	}
	if cents != nil {
		a := domain.Amount(*cents)
		guest.PledgeAmount = &a
	}
	return &guest, nil
}
