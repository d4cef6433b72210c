package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kazino-api/internal/catalog"
	"kazino-api/internal/model"
	"kazino-api/internal/service"
)

// BootstrapResponse is the static data a client needs to render the
// shop: cases grouped by category and the rarity table.
type BootstrapResponse struct {
	Cases      []model.Case   `json:"cases"`
	Categories []string       `json:"categories"`
	Rarities   []model.Rarity `json:"rarities"`
}

// HandleBootstrap serves the catalog overview.
func HandleBootstrap(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Snapshot()
		if err != nil {
			writeError(w, err)
			return
		}

		cases := snap.Cases
		if cases == nil {
			cases = []model.Case{}
		}
		writeJSON(w, http.StatusOK, BootstrapResponse{
			Cases:      cases,
			Categories: snap.Categories,
			Rarities:   snap.Rarities,
		})
	}
}

// CaseContentsResponse lists the weapons droppable from one case.
type CaseContentsResponse struct {
	Case    model.Case     `json:"case"`
	Weapons []model.Weapon `json:"weapons"`
}

// HandleCaseContents serves a case's weapon pool, sorted by tier.
func HandleCaseContents(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Snapshot()
		if err != nil {
			writeError(w, err)
			return
		}

		caseID := chi.URLParam(r, "caseID")
		c, ok := snap.CasesByID[caseID]
		if !ok {
			writeError(w, service.ErrCaseNotFound)
			return
		}

		writeJSON(w, http.StatusOK, CaseContentsResponse{
			Case:    c,
			Weapons: snap.CaseWeapons(caseID),
		})
	}
}
