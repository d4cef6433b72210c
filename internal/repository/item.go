package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kazino-api/internal/model"
)

const itemColumns = `id, user_id, name, rarity, price, stattrak, status, source, case_id, created_at`

// ItemRepository handles inventory item persistence. Items are
// append-only: one insert at mint time, at most one status transition
// afterwards.
type ItemRepository struct {
	db DB
}

// NewItemRepository creates a new ItemRepository instance.
func NewItemRepository(db DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithDB returns a repository bound to a different query surface,
// typically a transaction.
func (r *ItemRepository) WithDB(db DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func scanItem(row pgx.Row) (*model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Name,
		&item.Rarity,
		&item.Price,
		&item.Stattrak,
		&item.Status,
		&item.Source,
		&item.CaseID,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}

// Create persists a freshly minted item.
func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	const query = `
		INSERT INTO items (id, user_id, name, rarity, price, stattrak, status, source, case_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.UserID,
		item.Name,
		item.Rarity,
		item.Price,
		item.Stattrak,
		item.Status,
		item.Source,
		item.CaseID,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by id.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

// GetOwned retrieves one item, but only if it belongs to the user and is
// still owned. Anything else reports ErrItemNotFound.
func (r *ItemRepository) GetOwned(ctx context.Context, userID int64, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND user_id = $2 AND status = $3`
	return scanItem(r.db.QueryRow(ctx, query, id, userID, model.StatusOwned))
}

// ListOwnedByIDs returns the subset of ids that the user currently owns,
// in catalog order of the ids given. Missing or non-owned ids are simply
// absent from the result.
func (r *ItemRepository) ListOwnedByIDs(ctx context.Context, userID int64, ids []string) ([]*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE user_id = $1 AND status = $2 AND id = ANY($3)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID, model.StatusOwned, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListByUser returns the user's items filtered by status, newest first.
// An empty status returns everything.
func (r *ItemRepository) ListByUser(ctx context.Context, userID int64, status string) ([]*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// MarkStatus transitions an owned item into a terminal status. The
// update is guarded on the current status, so a concurrent sell or
// upgrade of the same item loses with ErrItemNotFound instead of
// double-spending it.
func (r *ItemRepository) MarkStatus(ctx context.Context, userID int64, id, status string) error {
	const query = `
		UPDATE items
		SET status = $3
		WHERE id = $1 AND user_id = $2 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query, id, userID, status, model.StatusOwned)
	if err != nil {
		return fmt.Errorf("failed to mark item %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func collectItems(rows pgx.Rows) ([]*model.Item, error) {
	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
