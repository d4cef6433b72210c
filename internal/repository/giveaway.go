package repository

import (
	"context"
	"fmt"

	"kazino-api/internal/model"
)

// GiveawayRepository persists giveaway participations. One row per
// (user, slot); the slot itself is derived from the clock, never stored.
type GiveawayRepository struct {
	db DB
}

// NewGiveawayRepository creates a new GiveawayRepository instance.
func NewGiveawayRepository(db DB) *GiveawayRepository {
	return &GiveawayRepository{db: db}
}

// WithDB returns a repository bound to a different query surface,
// typically a transaction.
func (r *GiveawayRepository) WithDB(db DB) *GiveawayRepository {
	return &GiveawayRepository{db: db}
}

// Join records a participation. Returns false when the user already
// joined that slot; the insert is a no-op in that case.
func (r *GiveawayRepository) Join(ctx context.Context, userID int64, giveawayID string, entry int64) (bool, error) {
	const query = `
		INSERT INTO giveaway_entries (user_id, giveaway_id, entry)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, giveaway_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, userID, giveawayID, entry)
	if err != nil {
		return false, fmt.Errorf("failed to join giveaway: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// HasEntry reports whether the user joined the given slot.
func (r *GiveawayRepository) HasEntry(ctx context.Context, userID int64, giveawayID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM giveaway_entries WHERE user_id = $1 AND giveaway_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, giveawayID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check giveaway entry: %w", err)
	}
	return exists, nil
}

// ListByUser returns the user's participations, most recent first.
func (r *GiveawayRepository) ListByUser(ctx context.Context, userID int64) ([]model.GiveawayEntry, error) {
	const query = `
		SELECT user_id, giveaway_id, entry, joined_at
		FROM giveaway_entries
		WHERE user_id = $1
		ORDER BY joined_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaway entries: %w", err)
	}
	defer rows.Close()

	var entries []model.GiveawayEntry
	for rows.Next() {
		var e model.GiveawayEntry
		if err := rows.Scan(&e.UserID, &e.GiveawayID, &e.Entry, &e.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan giveaway entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating giveaway entries: %w", err)
	}

	return entries, nil
}
