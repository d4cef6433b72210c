package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/model"
	"kazino-api/internal/pkg/lock"
	"kazino-api/internal/repository"
)

// SellResult is the outcome of selling an item.
type SellResult struct {
	ItemID  string `json:"item_id"`
	Price   int64  `json:"price"`
	Balance int64  `json:"balance"`
}

// InventoryService handles item listing and selling.
type InventoryService struct {
	pool  *pgxpool.Pool
	users *repository.UserRepository
	items *repository.ItemRepository
	locks *lock.UserLock
}

// NewInventoryService creates a new InventoryService instance.
func NewInventoryService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	items *repository.ItemRepository,
	locks *lock.UserLock,
) *InventoryService {
	return &InventoryService{pool: pool, users: users, items: items, locks: locks}
}

// ListOwned returns the user's currently owned items, newest first.
func (s *InventoryService) ListOwned(ctx context.Context, userID int64) ([]*model.Item, error) {
	return s.items.ListByUser(ctx, userID, model.StatusOwned)
}

// Sell converts an owned item back into balance at its mint price. The
// status flip and the credit share a transaction, and the flip is guarded
// on the item still being owned, so an item can be sold at most once.
func (s *InventoryService) Sell(ctx context.Context, user *model.User, itemID string) (*SellResult, error) {
	var result *SellResult
	err := s.locks.WithLock(user.ID, func() error {
		return withTxRetry(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.sellLocked(ctx, user, itemID)
			return err
		})
	})
	return result, err
}

func (s *InventoryService) sellLocked(ctx context.Context, user *model.User, itemID string) (*SellResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithDB(tx)
	items := s.items.WithDB(tx)

	item, err := items.GetOwned(ctx, user.ID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	if err := items.MarkStatus(ctx, user.ID, itemID, model.StatusSold); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	balance, err := users.CreditBalance(ctx, user.ID, item.Price)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sell: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("item_id", itemID).
		Int64("price", item.Price).
		Msg("Item sold")

	return &SellResult{ItemID: itemID, Price: item.Price, Balance: balance}, nil
}
