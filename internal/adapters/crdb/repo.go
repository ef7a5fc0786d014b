package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

const (
	SerializationFailureCode = "40001"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

// Migrate creates the ledger tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

const itemColumns = `id, name, description, image, external_link, category,
		allow_multiple, max_quantity, purchase_count, reserved,
		reserved_by, reserved_by_id, reserved_at, created_at, updated_at`

// Reserve claims one unit of a catalog item. The availability check and the
// increment are a single conditional UPDATE, so two guests racing for the
// last unit can never both succeed: the loser's WHERE clause no longer
// matches and the statement touches zero rows.
func (r *Repository) Reserve(ctx context.Context, itemID, guestID uuid.UUID, guestName string, now time.Time) (*domain.CatalogItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE catalog_items
		SET purchase_count = purchase_count + 1,
		    reserved = purchase_count + 1 >= max_quantity,
		    reserved_by = $2,
		    reserved_by_id = $3,
		    reserved_at = $4,
		    updated_at = $4
		WHERE id = $1 AND purchase_count < max_quantity
		RETURNING `+itemColumns+`
	`, itemID, guestName, guestID, now)

	item, err := scanItem(row)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Zero rows: either the item is gone or it is exhausted.
	var exists bool
	if probeErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_items WHERE id = $1)`, itemID,
	).Scan(&exists); probeErr != nil {
		return nil, probeErr
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrExhausted
}

func (r *Repository) CreateItem(ctx context.Context, item domain.CatalogItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO catalog_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, item.ID, item.Name, item.Description, item.Image, item.ExternalLink,
		item.Category, item.AllowMultiple, item.MaxQuantity, item.PurchaseCount,
		item.Reserved, item.ReservedBy, item.ReservedByID, item.ReservedAt,
		item.CreatedAt, item.UpdatedAt)
	return err
}

// UpdateItem rewrites the admin-editable fields only. purchase_count,
// reserved and the last-reserver pointer belong to Reserve.
func (r *Repository) UpdateItem(ctx context.Context, item domain.CatalogItem) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE catalog_items
		SET name = $2, description = $3, image = $4, external_link = $5,
		    category = $6, allow_multiple = $7, max_quantity = $8,
		    updated_at = $9
		WHERE id = $1
	`, item.ID, item.Name, item.Description, item.Image, item.ExternalLink,
		item.Category, item.AllowMultiple, item.MaxQuantity, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM catalog_items WHERE id = $1
	`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return item, err
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM catalog_items ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	var category string
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Image,
		&item.ExternalLink, &category, &item.AllowMultiple, &item.MaxQuantity,
		&item.PurchaseCount, &item.Reserved, &item.ReservedBy,
		&item.ReservedByID, &item.ReservedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)
	return &item, nil
}
