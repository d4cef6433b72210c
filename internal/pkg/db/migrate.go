package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations is the ordered list of schema statements. Statements are
// idempotent so the whole list can run on every startup.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users table",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			nickname VARCHAR(64) NOT NULL UNIQUE,
			token VARCHAR(64) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			max_balance BIGINT NOT NULL DEFAULT 0,
			last_claim BIGINT NOT NULL DEFAULT 0,
			cases_opened BIGINT NOT NULL DEFAULT 0,
			cases_won BIGINT NOT NULL DEFAULT 0,
			upgrades BIGINT NOT NULL DEFAULT 0,
			upgrade_wins BIGINT NOT NULL DEFAULT 0,
			daily_cases BIGINT NOT NULL DEFAULT 0,
			daily_reset INT NOT NULL DEFAULT 0,
			best_drop_item_id VARCHAR(64),
			best_upgrade_item_id VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_token ON users(token);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
		`,
	},
	{
		name: "items table",
		sql: `
		CREATE TABLE IF NOT EXISTS items (
			id VARCHAR(64) PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			rarity VARCHAR(32) NOT NULL,
			price BIGINT NOT NULL,
			stattrak BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(16) NOT NULL,
			source VARCHAR(16) NOT NULL,
			case_id VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_items_user ON items(user_id);
		CREATE INDEX IF NOT EXISTS idx_items_user_status ON items(user_id, status, created_at DESC);
		`,
	},
	{
		name: "giveaway_entries table",
		sql: `
		CREATE TABLE IF NOT EXISTS giveaway_entries (
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			giveaway_id VARCHAR(32) NOT NULL,
			entry BIGINT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, giveaway_id)
		);
		CREATE INDEX IF NOT EXISTS idx_giveaway_entries_user_joined ON giveaway_entries(user_id, joined_at DESC);
		`,
	},
}

// Migrate applies the database schema. Safe to call on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
