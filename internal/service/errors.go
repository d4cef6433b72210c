// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for economy operations. Handlers map these onto HTTP
// statuses.
var (
	ErrInvalidNickname   = errors.New("invalid nickname")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrCaseNotFound      = errors.New("case not found")
	ErrEmptyCase         = errors.New("case has no weapons")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrItemNotFound      = errors.New("item not found or not owned")
	ErrNoItemsSelected   = errors.New("no items selected")
	ErrInvalidChance     = errors.New("invalid upgrade chance")
	ErrTargetNotFound    = errors.New("target weapon not found")
	ErrGiveawayNotFound  = errors.New("giveaway not found")
)

// maxTxRetries bounds retries of a transactional operation that lost a
// serialization race.
const maxTxRetries = 3

// withTxRetry runs fn, retrying up to maxTxRetries times when PostgreSQL
// reports a serialization failure (SQLSTATE 40001). Any other error is
// returned as-is.
func withTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
