package handler

import (
	"net/http"
	"time"

	"kazino-api/internal/model"
	"kazino-api/internal/service"
)

// topLimit is how many accounts the leaderboard shows.
const topLimit = 10

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Nickname string `json:"nickname"`
}

// LoginResponse carries the issued token and the account profile.
type LoginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Profile is the public view of an account.
type Profile struct {
	ID             int64  `json:"id"`
	Nickname       string `json:"nickname"`
	Balance        int64  `json:"balance"`
	MaxBalance     int64  `json:"max_balance"`
	CasesOpened    int64  `json:"cases_opened"`
	CasesWon       int64  `json:"cases_won"`
	Upgrades       int64  `json:"upgrades"`
	UpgradeWins    int64  `json:"upgrade_wins"`
	DailyCases     int64  `json:"daily_cases"`
	ClaimAvailable int64  `json:"claim_available_in"`
}

// HandleLogin resolves a nickname to an account and issues a token.
func HandleLogin(accounts *service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, service.ErrInvalidNickname)
			return
		}

		user, err := accounts.Login(r.Context(), req.Nickname)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token: user.Token,
			User:  profileOf(accounts, user),
		})
	}
}

// MeResponse is the full account view: profile and stats, the best
// items on record, and the item history newest first.
type MeResponse struct {
	Profile
	BestDrop    *model.Item   `json:"best_drop"`
	BestUpgrade *model.Item   `json:"best_upgrade"`
	Inventory   []*model.Item `json:"inventory"`
}

// HandleMe returns the authenticated account's full payload.
func HandleMe(accounts *service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := accounts.Payload(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}

		inventory := payload.Inventory
		if inventory == nil {
			inventory = []*model.Item{}
		}
		writeJSON(w, http.StatusOK, MeResponse{
			Profile:     profileOf(accounts, payload.User),
			BestDrop:    payload.BestDrop,
			BestUpgrade: payload.BestUpgrade,
			Inventory:   inventory,
		})
	}
}

// ClaimResponse reports a bonus claim. An early claim is not an error:
// claimed is false and the account comes back unchanged.
type ClaimResponse struct {
	Claimed   bool    `json:"claimed"`
	User      Profile `json:"user"`
	NextClaim int64   `json:"next_claim"`
}

// HandleClaim credits the periodic balance bonus.
func HandleClaim(accounts *service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := accounts.ClaimBonus(r.Context(), userFrom(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ClaimResponse{
			Claimed:   result.Claimed,
			User:      profileOf(accounts, result.User),
			NextClaim: result.NextClaim,
		})
	}
}

// TopResponse is the net-worth leaderboard.
type TopResponse struct {
	Players []model.TopPlayer `json:"players"`
}

// HandleTop returns the leaderboard: players ranked by balance plus
// owned inventory value.
func HandleTop(accounts *service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := accounts.TopPlayers(r.Context(), topLimit)
		if err != nil {
			writeError(w, err)
			return
		}
		if players == nil {
			players = []model.TopPlayer{}
		}
		writeJSON(w, http.StatusOK, TopResponse{Players: players})
	}
}

func profileOf(accounts *service.AccountService, user *model.User) Profile {
	return Profile{
		ID:             user.ID,
		Nickname:       user.Nickname,
		Balance:        user.Balance,
		MaxBalance:     user.MaxBalance,
		CasesOpened:    user.CasesOpened,
		CasesWon:       user.CasesWon,
		Upgrades:       user.Upgrades,
		UpgradeWins:    user.UpgradeWins,
		DailyCases:     user.DailyCases,
		ClaimAvailable: int64(accounts.ClaimAvailableIn(user, time.Now()) / time.Second),
	}
}
