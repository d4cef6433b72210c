package service

import (
	"context"
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
	"kazino-api/internal/upgrade"
)

// UpgradePreview lists candidate reward weapons for a stake.
type UpgradePreview struct {
	StakeValue  int64          `json:"stake_value"`
	TargetValue int64          `json:"target_value"`
	Consolation int64          `json:"consolation"`
	Targets     []model.Weapon `json:"targets"`
}

// UpgradeResult is the outcome of a committed upgrade.
type UpgradeResult struct {
	Won         bool        `json:"won"`
	Item        *model.Item `json:"item,omitempty"`
	Consolation int64       `json:"consolation"`
	Balance     int64       `json:"balance"`
}

// UpgradeService stakes owned items for a chance at a higher-value
// weapon.
type UpgradeService struct {
	pool    *pgxpool.Pool
	users   *repository.UserRepository
	items   *repository.ItemRepository
	catalog *catalog.Store
	engine  *upgrade.Engine
	roller  *drop.Roller
	locks   *lock.UserLock
	feed    *feed.Feed
}

// NewUpgradeService creates a new UpgradeService instance.
func NewUpgradeService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	items *repository.ItemRepository,
	store *catalog.Store,
	engine *upgrade.Engine,
	roller *drop.Roller,
	locks *lock.UserLock,
	f *feed.Feed,
) *UpgradeService {
	return &UpgradeService{
		pool:    pool,
		users:   users,
		items:   items,
		catalog: store,
		engine:  engine,
		roller:  roller,
		locks:   locks,
		feed:    f,
	}
}

// Targets previews candidate reward weapons for staking the given items
// at the given chance. The preview is lenient: ids the user does not own
// are ignored, and a zero stake yields an empty target list. Commit
// accepts any catalog weapon as the target, previewed or not.
func (s *UpgradeService) Targets(ctx context.Context, user *model.User, itemIDs []string, chance int) (*UpgradePreview, error) {
	if !upgrade.ValidChance(chance) {
		return nil, ErrInvalidChance
	}

	var stakeValue int64
	if ids := dedupe(itemIDs); len(ids) > 0 {
		owned, err := s.items.ListOwnedByIDs(ctx, user.ID, ids)
		if err != nil {
			return nil, err
		}
		for _, item := range owned {
			stakeValue += item.Price
		}
	}
	if stakeValue == 0 {
		return &UpgradePreview{Targets: []model.Weapon{}}, nil
	}

	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	targetValue := upgrade.TargetValue(stakeValue, chance)
	return &UpgradePreview{
		StakeValue:  stakeValue,
		TargetValue: int64(targetValue),
		Consolation: upgrade.Consolation(stakeValue),
		Targets:     s.engine.Targets(snap.Weapons, targetValue),
	}, nil
}

// Commit resolves an upgrade. The staked items, the attempt counter and
// the outcome, minted reward or consolation credit, commit in one
// transaction.
func (s *UpgradeService) Commit(ctx context.Context, user *model.User, itemIDs []string, chance int, targetID string) (*UpgradeResult, error) {
	if !upgrade.ValidChance(chance) {
		return nil, ErrInvalidChance
	}

	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	target, ok := snap.WeaponsByID[targetID]
	if !ok {
		return nil, ErrTargetNotFound
	}

	var result *UpgradeResult
	err = s.locks.WithLock(user.ID, func() error {
		return withTxRetry(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.commitLocked(ctx, user, itemIDs, chance, target)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Won {
		s.feed.Publish(model.FeedEvent{
			Nickname: user.Nickname,
			Weapon:   result.Item.Name,
			Rarity:   result.Item.Rarity,
			Price:    result.Item.Price,
			Stattrak: result.Item.Stattrak,
			TS:       time.Now().Unix(),
		})
	}

	return result, nil
}

func (s *UpgradeService) commitLocked(ctx context.Context, user *model.User, itemIDs []string, chance int, target model.Weapon) (*UpgradeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithDB(tx)
	items := s.items.WithDB(tx)

	stake, err := s.loadStake(ctx, items, user.ID, itemIDs)
	if err != nil {
		return nil, err
	}

	// The attempt counts before the outcome is drawn, so wins can never
	// outnumber attempts.
	if err := users.RecordUpgradeAttempt(ctx, user.ID); err != nil {
		return nil, err
	}

	won := s.engine.Resolve(chance)

	result := &UpgradeResult{Won: won}
	if won {
		for _, id := range stake.ids {
			if err := items.MarkStatus(ctx, user.ID, id, model.StatusUpgraded); err != nil {
				return nil, err
			}
		}

		d := s.roller.ApplyStattrak(target)
		item := &model.Item{
			ID:       uuid.NewString(),
			UserID:   user.ID,
			Name:     d.Name,
			Rarity:   d.Rarity,
			Price:    d.Price,
			Stattrak: d.Stattrak,
			Status:   model.StatusOwned,
			Source:   model.SourceUpgrade,
		}
		if err := items.Create(ctx, item); err != nil {
			return nil, err
		}
		if err := users.RecordUpgradeWin(ctx, user.ID); err != nil {
			return nil, err
		}
		if err := users.SetBestUpgrade(ctx, user.ID, item.ID); err != nil {
			return nil, err
		}

		result.Item = item
		fresh, err := users.GetByID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Balance = fresh.Balance
	} else {
		for _, id := range stake.ids {
			if err := items.MarkStatus(ctx, user.ID, id, model.StatusFailed); err != nil {
				return nil, err
			}
		}

		result.Consolation = upgrade.Consolation(stake.value)
		if result.Balance, err = users.CreditBalance(ctx, user.ID, result.Consolation); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit upgrade: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Int("chance", chance).
		Int64("stake_value", stake.value).
		Str("target", target.Name).
		Bool("won", won).
		Msg("Upgrade resolved")

	return result, nil
}

type stakeInfo struct {
	ids   []string
	value int64
}

// loadStake fetches the staked items and sums their mint prices. Every
// requested id must resolve to an item the user still owns.
func (s *UpgradeService) loadStake(ctx context.Context, items *repository.ItemRepository, userID int64, itemIDs []string) (*stakeInfo, error) {
	itemIDs = dedupe(itemIDs)
	if len(itemIDs) == 0 {
		return nil, ErrNoItemsSelected
	}

	owned, err := items.ListOwnedByIDs(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(itemIDs) {
		return nil, ErrItemNotFound
	}

	stake := &stakeInfo{ids: make([]string, 0, len(owned))}
	for _, item := range owned {
		stake.ids = append(stake.ids, item.ID)
		stake.value += item.Price
	}
	return stake, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
