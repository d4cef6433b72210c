package handler

import (
	"net/http"
	"time"

	"kazino-api/internal/service"
)

// HandleGiveaways lists the upcoming giveaway slots.
func HandleGiveaways(giveaways *service.GiveawayService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := giveaways.Upcoming(r.Context(), userFrom(r).ID, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

// JoinGiveawayRequest names the slot to join.
type JoinGiveawayRequest struct {
	GiveawayID string `json:"giveaway_id"`
}

// HandleJoinGiveaway enters the account into a slot.
func HandleJoinGiveaway(giveaways *service.GiveawayService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinGiveawayRequest
		if err := decodeJSON(r, &req); err != nil || req.GiveawayID == "" {
			writeError(w, service.ErrGiveawayNotFound)
			return
		}

		result, err := giveaways.Join(r.Context(), userFrom(r), req.GiveawayID, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleNotifications lists the account's giveaway participations and
// their outcomes.
func HandleNotifications(giveaways *service.GiveawayService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifications, err := giveaways.Notifications(r.Context(), userFrom(r).ID, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, notifications)
	}
}
