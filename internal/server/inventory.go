package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"farmconnect/internal/app"
	"farmconnect/pkg/domain"
)

type inventoryItemRequest struct {
	ItemName     string `json:"itemName"`
	ItemType     string `json:"itemType"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit"`
	PurchaseDate string `json:"purchaseDate"`
	Notes        string `json:"notes"`
}

func (req inventoryItemRequest) toInput(w http.ResponseWriter) (app.InventoryItemInput, bool) {
	in := app.InventoryItemInput{
		ItemName: req.ItemName,
		ItemType: domain.InventoryItemType(strings.TrimSpace(req.ItemType)),
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Notes:    req.Notes,
	}
	if strings.TrimSpace(req.PurchaseDate) != "" {
		when, err := time.Parse("2006-01-02", strings.TrimSpace(req.PurchaseDate))
		if err != nil {
			writeError(w, http.StatusBadRequest, "purchaseDate must be YYYY-MM-DD")
			return app.InventoryItemInput{}, false
		}
		in.PurchaseDate = &when
	}
	return in, true
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.ListInventory(r.Context(), user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var req inventoryItemRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, ok := req.toInput(w)
		if !ok {
			return
		}
		item, err := s.app.CreateInventoryItem(r.Context(), user, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleInventoryByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/inventory/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req inventoryItemRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, ok := req.toInput(w)
		if !ok {
			return
		}
		item, err := s.app.UpdateInventoryItem(r.Context(), user, id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.app.DeleteInventoryItem(r.Context(), user, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
