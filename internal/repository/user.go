package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kazino-api/internal/model"
)

const userColumns = `
	id, nickname, token, balance, max_balance, last_claim,
	cases_opened, cases_won, upgrades, upgrade_wins,
	daily_cases, daily_reset, best_drop_item_id, best_upgrade_item_id, created_at
`

// UserRepository handles user account persistence.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithDB returns a repository bound to a different query surface,
// typically a transaction.
func (r *UserRepository) WithDB(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Token,
		&user.Balance,
		&user.MaxBalance,
		&user.LastClaim,
		&user.CasesOpened,
		&user.CasesWon,
		&user.Upgrades,
		&user.UpgradeWins,
		&user.DailyCases,
		&user.DailyReset,
		&user.BestDropItemID,
		&user.BestUpgradeItemID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// UpsertByNickname returns the account for a nickname, creating it with
// the starting balance on first login. The token is rotated on every
// call, so a login invalidates previously issued tokens.
func (r *UserRepository) UpsertByNickname(ctx context.Context, nickname, token string, startBalance int64) (*model.User, error) {
	query := `
		INSERT INTO users (nickname, token, balance, max_balance)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (nickname) DO UPDATE SET token = EXCLUDED.token
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, nickname, token, startBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// GetByToken resolves a user from a bearer token.
// Returns ErrUserNotFound for unknown tokens.
func (r *UserRepository) GetByToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	return scanUser(r.db.QueryRow(ctx, query, token))
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// CreditBalance adds amount to the user's balance and lifts max_balance
// when the new balance exceeds it. Returns the new balance.
func (r *UserRepository) CreditBalance(ctx context.Context, id, amount int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance + $2,
		    max_balance = GREATEST(max_balance, balance + $2)
		WHERE id = $1
		RETURNING balance
	`

	var balance int64
	err := r.db.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}
	return balance, nil
}

// DebitBalance subtracts amount from the user's balance. The update is
// conditional on the balance covering the amount; a failed condition
// reports ErrInsufficientBalance and leaves the row untouched.
func (r *UserRepository) DebitBalance(ctx context.Context, id, amount int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := r.db.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		return 0, fmt.Errorf("failed to debit balance: %w", err)
	}
	return balance, nil
}

// ResetDaily zeroes the daily case counter when the stored day key is
// stale. Returns true when a reset happened. Calling it twice within the
// same day is a no-op.
func (r *UserRepository) ResetDaily(ctx context.Context, id int64, dayKey int) (bool, error) {
	const query = `
		UPDATE users
		SET daily_cases = 0, daily_reset = $2
		WHERE id = $1 AND daily_reset <> $2
	`

	tag, err := r.db.Exec(ctx, query, id, dayKey)
	if err != nil {
		return false, fmt.Errorf("failed to reset daily counters: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordCaseOpen debits the case price and bumps the open counters in a
// single conditional update, so a concurrent open can never overdraw the
// balance. Returns the new balance.
func (r *UserRepository) RecordCaseOpen(ctx context.Context, id, price int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2,
		    cases_opened = cases_opened + 1,
		    daily_cases = daily_cases + 1
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := r.db.QueryRow(ctx, query, id, price).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		return 0, fmt.Errorf("failed to record case open: %w", err)
	}
	return balance, nil
}

// RecordCaseWin bumps the won-open counter, counted when the drop is
// worth at least the case price.
func (r *UserRepository) RecordCaseWin(ctx context.Context, id int64) error {
	const query = `UPDATE users SET cases_won = cases_won + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record case win: %w", err)
	}
	return nil
}

// ClaimBonus credits the periodic bonus and stamps last_claim, guarded
// on the cooldown having elapsed since the previous claim. A claim
// inside the window reports ErrClaimNotReady without touching the row.
func (r *UserRepository) ClaimBonus(ctx context.Context, id, amount, now, cooldownSec int64) (*model.User, error) {
	query := `
		UPDATE users
		SET balance = balance + $2,
		    max_balance = GREATEST(max_balance, balance + $2),
		    last_claim = $3
		WHERE id = $1 AND $3 - last_claim >= $4
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, amount, now, cooldownSec))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrClaimNotReady
		}
		return nil, err
	}
	return user, nil
}

// RecordUpgradeAttempt bumps the attempt counter. It runs before the
// outcome is decided, so attempts always cover wins.
func (r *UserRepository) RecordUpgradeAttempt(ctx context.Context, id int64) error {
	const query = `UPDATE users SET upgrades = upgrades + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record upgrade attempt: %w", err)
	}
	return nil
}

// RecordUpgradeWin bumps the upgrade win counter.
func (r *UserRepository) RecordUpgradeWin(ctx context.Context, id int64) error {
	const query = `UPDATE users SET upgrade_wins = upgrade_wins + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record upgrade win: %w", err)
	}
	return nil
}

// SetBestDrop points best_drop_item_id at itemID if it is strictly more
// expensive than the current best. Ties keep the earlier item.
func (r *UserRepository) SetBestDrop(ctx context.Context, userID int64, itemID string) error {
	const query = `
		UPDATE users
		SET best_drop_item_id = $2
		WHERE id = $1 AND (
			best_drop_item_id IS NULL
			OR (SELECT price FROM items WHERE id = $2) >
			   (SELECT price FROM items WHERE id = users.best_drop_item_id)
		)
	`

	if _, err := r.db.Exec(ctx, query, userID, itemID); err != nil {
		return fmt.Errorf("failed to set best drop: %w", err)
	}
	return nil
}

// SetBestUpgrade points best_upgrade_item_id at itemID if it is strictly
// more expensive than the current best.
func (r *UserRepository) SetBestUpgrade(ctx context.Context, userID int64, itemID string) error {
	const query = `
		UPDATE users
		SET best_upgrade_item_id = $2
		WHERE id = $1 AND (
			best_upgrade_item_id IS NULL
			OR (SELECT price FROM items WHERE id = $2) >
			   (SELECT price FROM items WHERE id = users.best_upgrade_item_id)
		)
	`

	if _, err := r.db.Exec(ctx, query, userID, itemID); err != nil {
		return fmt.Errorf("failed to set best upgrade: %w", err)
	}
	return nil
}

// GetTopPlayers retrieves the top N players ranked by net worth: balance
// plus the value of currently owned items.
func (r *UserRepository) GetTopPlayers(ctx context.Context, limit int) ([]model.TopPlayer, error) {
	const query = `
		SELECT u.nickname,
		       u.balance + COALESCE(SUM(i.price) FILTER (WHERE i.status = 'owned'), 0) AS total
		FROM users u
		LEFT JOIN items i ON i.user_id = u.id
		GROUP BY u.id
		ORDER BY total DESC, u.id ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	defer rows.Close()

	var players []model.TopPlayer
	for rows.Next() {
		var p model.TopPlayer
		if err := rows.Scan(&p.Nickname, &p.Total); err != nil {
			return nil, fmt.Errorf("failed to scan top player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top players: %w", err)
	}

	return players, nil
}
