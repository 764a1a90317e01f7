package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier covers pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pool additionally opens transactions.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for inventory items.
type Repository struct {
	pool Pool
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool Pool) *Repository {
	if pool == nil {
		panic("inventory: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Begin opens a transaction.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const itemColumns = `id, clinic_id, name, quantity, reorder_level, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.ClinicID, &it.Name, &it.Quantity, &it.ReorderLevel, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Insert writes a new item.
func (r *Repository) Insert(ctx context.Context, it *Item) error {
	query := `
		INSERT INTO inventory_items (id, clinic_id, name, quantity, reorder_level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, it.ID, it.ClinicID, it.Name, it.Quantity, it.ReorderLevel).
		Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inventory: insert failed: %w", err)
	}
	return nil
}

// GetByIDTx fetches an item under the transaction with FOR UPDATE so
// concurrent consumes serialize on the row.
func (r *Repository) GetByIDTx(ctx context.Context, q Querier, id string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`
	it, err := scanItem(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("inventory: select for update failed: %w", err)
	}
	return it, nil
}

// SetQuantityTx writes the new quantity inside the transaction.
func (r *Repository) SetQuantityTx(ctx context.Context, q Querier, id string, quantity int) error {
	query := `
		UPDATE inventory_items
		SET quantity = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := q.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("inventory: set quantity failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListByClinic returns the clinic's items ordered by name.
func (r *Repository) ListByClinic(ctx context.Context, clinicID string) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE clinic_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan failed: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
