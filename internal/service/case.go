package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/catalog"
	"kazino-api/internal/drop"
	"kazino-api/internal/feed"
	"kazino-api/internal/model"
	"kazino-api/internal/pkg/lock"
	"kazino-api/internal/repository"
)

// OpenResult is the outcome of a case opening.
type OpenResult struct {
	Item    *model.Item `json:"item"`
	Balance int64       `json:"balance"`
	Profit  int64       `json:"profit"`
}

// CaseService handles case openings: the debit, the roll and the mint
// commit together or not at all.
type CaseService struct {
	pool    *pgxpool.Pool
	users   *repository.UserRepository
	items   *repository.ItemRepository
	catalog *catalog.Store
	roller  *drop.Roller
	locks   *lock.UserLock
	feed    *feed.Feed
}

// NewCaseService creates a new CaseService instance.
func NewCaseService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	items *repository.ItemRepository,
	store *catalog.Store,
	roller *drop.Roller,
	locks *lock.UserLock,
	f *feed.Feed,
) *CaseService {
	return &CaseService{
		pool:    pool,
		users:   users,
		items:   items,
		catalog: store,
		roller:  roller,
		locks:   locks,
		feed:    f,
	}
}

// OpenCase debits the case price, rolls one drop and mints it into the
// user's inventory. The debit and the mint share a transaction; the feed
// event goes out only after the transaction commits.
func (s *CaseService) OpenCase(ctx context.Context, user *model.User, caseID string) (*OpenResult, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	c, ok := snap.CasesByID[caseID]
	if !ok {
		return nil, ErrCaseNotFound
	}
	weapons := snap.WeaponsByCase[caseID]
	if len(weapons) == 0 {
		return nil, ErrEmptyCase
	}

	var result *OpenResult
	err = s.locks.WithLock(user.ID, func() error {
		return withTxRetry(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.openLocked(ctx, user, c, weapons)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(model.FeedEvent{
		Nickname: user.Nickname,
		Weapon:   result.Item.Name,
		Rarity:   result.Item.Rarity,
		Price:    result.Item.Price,
		Stattrak: result.Item.Stattrak,
		TS:       time.Now().Unix(),
	})

	return result, nil
}

func (s *CaseService) openLocked(ctx context.Context, user *model.User, c model.Case, weapons []model.Weapon) (*OpenResult, error) {
	now := time.Now()
	if _, err := s.users.ResetDaily(ctx, user.ID, DayKey(now)); err != nil {
		return nil, err
	}

	d, err := s.roller.RollDrop(weapons)
	if err != nil {
		if errors.Is(err, drop.ErrNoCandidates) {
			return nil, ErrEmptyCase
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithDB(tx)
	items := s.items.WithDB(tx)

	balance, err := users.RecordCaseOpen(ctx, user.ID, c.Price)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	item := &model.Item{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Name:     d.Name,
		Rarity:   d.Rarity,
		Price:    d.Price,
		Stattrak: d.Stattrak,
		Status:   model.StatusOwned,
		Source:   model.SourceCase,
		CaseID:   &c.ID,
	}
	if err := items.Create(ctx, item); err != nil {
		return nil, err
	}

	if d.Price >= c.Price {
		if err := users.RecordCaseWin(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if err := users.SetBestDrop(ctx, user.ID, item.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit case open: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("case", c.ID).
		Str("weapon", d.Name).
		Str("rarity", d.Rarity).
		Int64("price", d.Price).
		Bool("stattrak", d.Stattrak).
		Msg("Case opened")

	return &OpenResult{
		Item:    item,
		Balance: balance,
		Profit:  d.Price - c.Price,
	}, nil
}
