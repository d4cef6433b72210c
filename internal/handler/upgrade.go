package handler

import (
	"net/http"

	"kazino-api/internal/service"
)

// UpgradeTargetsRequest asks for candidate reward weapons.
type UpgradeTargetsRequest struct {
	ItemIDs []string `json:"item_ids"`
	Chance  int      `json:"chance"`
}

// HandleUpgradeTargets previews reward candidates for a stake.
func HandleUpgradeTargets(upgrades *service.UpgradeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpgradeTargetsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, service.ErrNoItemsSelected)
			return
		}

		preview, err := upgrades.Targets(r.Context(), userFrom(r), req.ItemIDs, req.Chance)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}

// UpgradeStartRequest commits an upgrade attempt.
type UpgradeStartRequest struct {
	ItemIDs  []string `json:"item_ids"`
	Chance   int      `json:"chance"`
	TargetID string   `json:"target_id"`
}

// HandleUpgradeStart resolves an upgrade: the staked items are consumed
// either way, and a win mints the target.
func HandleUpgradeStart(upgrades *service.UpgradeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpgradeStartRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, service.ErrNoItemsSelected)
			return
		}

		result, err := upgrades.Commit(r.Context(), userFrom(r), req.ItemIDs, req.Chance, req.TargetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
