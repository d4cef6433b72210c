package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"kazino-api/internal/config"
	"kazino-api/internal/model"
	"kazino-api/internal/repository"
)

// tokenBytes is the entropy of an issued bearer token.
const tokenBytes = 24

// nickname length limits, in runes.
const (
	nicknameMinLen = 2
	nicknameMaxLen = 24
)

// AccountService handles login, token auth, the periodic balance bonus
// and the profile payload.
type AccountService struct {
	users   *repository.UserRepository
	items   *repository.ItemRepository
	economy config.EconomyConfig
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(users *repository.UserRepository, items *repository.ItemRepository, economy config.EconomyConfig) *AccountService {
	return &AccountService{users: users, items: items, economy: economy}
}

// Login resolves a nickname to an account, creating it with the starting
// balance on first login, and issues a fresh bearer token. Any token
// issued earlier for the same nickname stops working.
func (s *AccountService) Login(ctx context.Context, nickname string) (*model.User, error) {
	nickname, err := NormalizeNickname(nickname)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user, err := s.users.UpsertByNickname(ctx, nickname, token, s.economy.StartBalance)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("nickname", user.Nickname).Msg("User logged in")
	return user, nil
}

// Authenticate resolves a bearer token to its account. The daily case
// counter resets lazily here, so the first access on a new UTC day sees
// it zeroed no matter which endpoint it hits.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if dayKey := DayKey(time.Now()); user.DailyReset != dayKey {
		if _, err := s.users.ResetDaily(ctx, user.ID, dayKey); err != nil {
			return nil, err
		}
		user.DailyCases = 0
		user.DailyReset = dayKey
	}
	return user, nil
}

// ClaimResult reports a bonus claim: whether the bonus was credited,
// the account afterwards, and when the next claim unlocks.
type ClaimResult struct {
	Claimed   bool
	User      *model.User
	NextClaim int64
}

// ClaimBonus credits the periodic bonus if the cooldown elapsed since
// the previous claim. A claim inside the window is not an error: the
// account comes back unchanged with the timestamp of the next claim.
func (s *AccountService) ClaimBonus(ctx context.Context, userID int64) (*ClaimResult, error) {
	now := time.Now().Unix()
	cooldown := int64(s.economy.BonusCooldown / time.Second)

	user, err := s.users.ClaimBonus(ctx, userID, s.economy.BonusAmount, now, cooldown)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotReady) {
			fresh, err := s.users.GetByID(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &ClaimResult{User: fresh, NextClaim: fresh.LastClaim + cooldown}, nil
		}
		return nil, err
	}

	log.Info().Int64("user_id", userID).Int64("amount", s.economy.BonusAmount).Msg("Bonus claimed")
	return &ClaimResult{Claimed: true, User: user, NextClaim: now + cooldown}, nil
}

// ClaimAvailableIn returns how long until the user may claim again, zero
// when the claim is available now.
func (s *AccountService) ClaimAvailableIn(user *model.User, now time.Time) time.Duration {
	return claimRemaining(user.LastClaim, now.Unix(), int64(s.economy.BonusCooldown/time.Second))
}

// UserPayload is the full account view: the row itself, the best items
// it references, and the item history newest first.
type UserPayload struct {
	User        *model.User
	BestDrop    *model.Item
	BestUpgrade *model.Item
	Inventory   []*model.Item
}

// Payload assembles the full account view for a user.
func (s *AccountService) Payload(ctx context.Context, user *model.User) (*UserPayload, error) {
	inventory, err := s.items.ListByUser(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}

	payload := &UserPayload{User: user, Inventory: inventory}
	if payload.BestDrop, err = s.bestItem(ctx, user.BestDropItemID); err != nil {
		return nil, err
	}
	if payload.BestUpgrade, err = s.bestItem(ctx, user.BestUpgradeItemID); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *AccountService) bestItem(ctx context.Context, id *string) (*model.Item, error) {
	if id == nil {
		return nil, nil
	}
	item, err := s.items.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// TopPlayers retrieves the leaderboard: players ranked by balance plus
// owned inventory value.
func (s *AccountService) TopPlayers(ctx context.Context, limit int) ([]model.TopPlayer, error) {
	return s.users.GetTopPlayers(ctx, limit)
}

// claimRemaining is the pure cooldown computation behind ClaimAvailableIn.
func claimRemaining(lastClaim, now, cooldownSec int64) time.Duration {
	elapsed := now - lastClaim
	if elapsed >= cooldownSec {
		return 0
	}
	return time.Duration(cooldownSec-elapsed) * time.Second
}

// DayKey renders a timestamp as a UTC calendar-day key, e.g. 20260831.
// Daily counters reset lazily when the stored key goes stale.
func DayKey(t time.Time) int {
	y, m, d := t.UTC().Date()
	return y*10000 + int(m)*100 + d
}

// NormalizeNickname trims and validates a login nickname: 2 to 24 runes
// of letters, digits, spaces, underscores or hyphens.
func NormalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	runes := []rune(nickname)
	if len(runes) < nicknameMinLen || len(runes) > nicknameMaxLen {
		return "", ErrInvalidNickname
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			continue
		}
		return "", ErrInvalidNickname
	}
	return nickname, nil
}

// generateToken returns a fresh URL-safe bearer token.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
