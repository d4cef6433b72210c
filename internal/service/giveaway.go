package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/catalog"
	"kazino-api/internal/giveaway"
	"kazino-api/internal/model"
	"kazino-api/internal/pkg/lock"
	"kazino-api/internal/repository"
)

// SlotStatus is an upcoming giveaway slot annotated with whether the
// requesting user already joined it.
type SlotStatus struct {
	giveaway.Slot
	Joined bool `json:"joined"`
}

// JoinResult is the outcome of joining a giveaway slot.
type JoinResult struct {
	Slot    giveaway.Slot `json:"slot"`
	Joined  bool          `json:"joined"`
	Balance int64         `json:"balance"`
}

// Notification describes a past or pending giveaway participation.
type Notification struct {
	GiveawayID string          `json:"giveaway_id"`
	Start      int64           `json:"start"`
	Entry      int64           `json:"entry"`
	Finished   bool            `json:"finished"`
	Reward     giveaway.Reward `json:"reward"`
}

// GiveawayService exposes the rolling giveaway schedule and handles slot
// entries. Slots are derived from the clock; only participations are
// stored.
type GiveawayService struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	giveaways *repository.GiveawayRepository
	catalog   *catalog.Store
	locks     *lock.UserLock
}

// NewGiveawayService creates a new GiveawayService instance.
func NewGiveawayService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	giveaways *repository.GiveawayRepository,
	store *catalog.Store,
	locks *lock.UserLock,
) *GiveawayService {
	return &GiveawayService{
		pool:      pool,
		users:     users,
		giveaways: giveaways,
		catalog:   store,
		locks:     locks,
	}
}

// Upcoming returns the next scheduled slots, each flagged with whether
// the user already joined.
func (s *GiveawayService) Upcoming(ctx context.Context, userID int64, now time.Time) ([]SlotStatus, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	slots := giveaway.Upcoming(snap, now)
	statuses := make([]SlotStatus, 0, len(slots))
	for _, slot := range slots {
		joined, err := s.giveaways.HasEntry(ctx, userID, slot.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, SlotStatus{Slot: slot, Joined: joined})
	}
	return statuses, nil
}

// Join enters the user into an upcoming slot, debiting its entry fee.
// Joining a slot twice is a no-op that charges nothing.
func (s *GiveawayService) Join(ctx context.Context, user *model.User, slotID string, now time.Time) (*JoinResult, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	slot, ok := findSlot(giveaway.Upcoming(snap, now), slotID)
	if !ok {
		return nil, ErrGiveawayNotFound
	}

	var result *JoinResult
	err = s.locks.WithLock(user.ID, func() error {
		return withTxRetry(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.joinLocked(ctx, user, slot)
			return err
		})
	})
	return result, err
}

func (s *GiveawayService) joinLocked(ctx context.Context, user *model.User, slot giveaway.Slot) (*JoinResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithDB(tx)
	giveaways := s.giveaways.WithDB(tx)

	inserted, err := giveaways.Join(ctx, user.ID, slot.ID, slot.Entry)
	if err != nil {
		return nil, err
	}
	if !inserted {
		fresh, err := users.GetByID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &JoinResult{Slot: slot, Joined: true, Balance: fresh.Balance}, nil
	}

	balance, err := users.DebitBalance(ctx, user.ID, slot.Entry)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit giveaway join: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("giveaway_id", slot.ID).
		Int64("entry", slot.Entry).
		Msg("Giveaway joined")

	return &JoinResult{Slot: slot, Joined: true, Balance: balance}, nil
}

// Notifications reports the user's participations, newest first.
// Finished slots carry their deterministic reward; pending slots resolve
// once their start time passes.
func (s *GiveawayService) Notifications(ctx context.Context, userID int64, now time.Time) ([]Notification, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	entries, err := s.giveaways.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	notifications := make([]Notification, 0, len(entries))
	for _, e := range entries {
		start, ok := giveaway.ParseSlotID(e.GiveawayID)
		if !ok {
			continue
		}
		n := Notification{
			GiveawayID: e.GiveawayID,
			Start:      start,
			Entry:      e.Entry,
			Finished:   start <= now.Unix(),
		}
		if n.Finished {
			n.Reward = giveaway.RewardForStart(snap, start)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func findSlot(slots []giveaway.Slot, slotID string) (giveaway.Slot, bool) {
	for _, slot := range slots {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return giveaway.Slot{}, false
}
