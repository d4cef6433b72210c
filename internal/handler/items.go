package handler

import (
	"net/http"

	"kazino-api/internal/model"
	"kazino-api/internal/service"
)

// OpenCaseRequest names the case to open.
type OpenCaseRequest struct {
	CaseID string `json:"case_id"`
}

// HandleOpenCase debits the case price and mints one drop.
func HandleOpenCase(cases *service.CaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenCaseRequest
		if err := decodeJSON(r, &req); err != nil || req.CaseID == "" {
			writeError(w, service.ErrCaseNotFound)
			return
		}

		result, err := cases.OpenCase(r.Context(), userFrom(r), req.CaseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// SellRequest names the item to sell.
type SellRequest struct {
	ItemID string `json:"item_id"`
}

// HandleSell converts an owned item back into balance.
func HandleSell(inventory *service.InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SellRequest
		if err := decodeJSON(r, &req); err != nil || req.ItemID == "" {
			writeError(w, service.ErrItemNotFound)
			return
		}

		result, err := inventory.Sell(r.Context(), userFrom(r), req.ItemID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// InventoryResponse lists the account's owned items.
type InventoryResponse struct {
	Items []*model.Item `json:"items"`
}

// HandleInventory lists the account's owned items, newest first.
func HandleInventory(inventory *service.InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := inventory.ListOwned(r.Context(), userFrom(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if items == nil {
			items = []*model.Item{}
		}
		writeJSON(w, http.StatusOK, InventoryResponse{Items: items})
	}
}
