package crdb

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

// InsertPledge appends one contribution row. Runs inside the confirmation
// transaction so a failed guest finalize never leaves an orphan pledge.
func (r *Repository) InsertPledge(ctx context.Context, tx pgx.Tx, p domain.PledgeContribution) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pledge_contributions (id, guest_id, guest_name, guest_phone, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.GuestID, p.GuestName, p.GuestPhone, p.Amount.Cents(), p.Timestamp)
	return err
}

func (r *Repository) ListPledges(ctx context.Context) ([]domain.PledgeContribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, guest_id, guest_name, guest_phone, amount_cents, created_at
		FROM pledge_contributions ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pledges []domain.PledgeContribution
	for rows.Next() {
		var p domain.PledgeContribution
		var cents int64
		if err := rows.Scan(&p.ID, &p.GuestID, &p.GuestName, &p.GuestPhone, &cents, &p.Timestamp); err != nil {
			return nil, err
		}
		p.Amount = domain.Amount(cents)
		pledges = append(pledges, p)
	}
	return pledges, rows.Err()
}

// PledgeAggregate computes (count, sum) on read. Always consistent with the
// set of persisted rows; the aggregate worker only caches it.
func (r *Repository) PledgeAggregate(ctx context.Context) (domain.PledgeAggregate, error) {
	var agg domain.PledgeAggregate
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM pledge_contributions
	`).Scan(&agg.Count, &sum)
	if err != nil {
		return domain.PledgeAggregate{}, err
	}
	agg.Sum = domain.Amount(sum)
	return agg, nil
}
