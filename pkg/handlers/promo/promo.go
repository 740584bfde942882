package promo

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/websockets"
)

// PromoHandler holds the dependencies for free promo-code allocations.
// Promo purchases skip the hold and payment flow entirely: numbers go
// straight from available to sold with a zero-amount purchase record.
type PromoHandler struct {
	Store     storage.ApiStore
	Publisher websockets.Publisher

	// Code is the single accepted promo code; Limit caps how many numbers
	// it can claim per board.
	Code  string
	Limit int
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(store storage.ApiStore, publisher websockets.Publisher, code string, limit int) *PromoHandler {
	return &PromoHandler{Store: store, Publisher: publisher, Code: code, Limit: limit}
}

// NewPromoPurchase is the request body for a promo allocation.
type NewPromoPurchase struct {
	BoardId     string  `json:"board_id"`
	Numbers     []int   `json:"numbers"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	Message     *string `json:"message,omitempty"`
	PromoCode   string  `json:"promo_code"`
}

// CreatePromoPurchase claims numbers for free under a valid promo code.
func (h *PromoHandler) CreatePromoPurchase(w http.ResponseWriter, r *http.Request) {
	var req NewPromoPurchase
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.BoardId == "" || len(req.Numbers) == 0 || req.DisplayName == "" {
		http.Error(w, "board_id, numbers and display_name are required", http.StatusBadRequest)
		return
	}
	if req.PromoCode == "" || req.PromoCode != h.Code {
		http.Error(w, "Invalid promo code", http.StatusBadRequest)
		return
	}

	// Enforce the per-board cap before claiming anything. The count is a
	// read-then-write, so a burst of concurrent promo claims could slightly
	// overshoot; acceptable for a manually shared code.
	used, err := h.Store.CountPromoPurchases(r.Context(), req.BoardId, h.Code)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to validate promo code: %v", err), http.StatusInternalServerError)
		return
	}
	if used >= h.Limit {
		http.Error(w, "Promo code limit reached", http.StatusBadRequest)
		return
	}
	if used+len(req.Numbers) > h.Limit {
		remaining := h.Limit - used
		http.Error(w, fmt.Sprintf("Only %d promo spot(s) remaining, please select fewer numbers", remaining), http.StatusBadRequest)
		return
	}

	purchase := &models.Purchase{
		BoardId:     req.BoardId,
		Email:       req.Email,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
		Message:     req.Message,
		PromoCode:   &h.Code,
	}

	created, err := h.Store.CreatePromoPurchase(r.Context(), purchase, req.Numbers)
	if err != nil {
		if errors.Is(err, storage.ErrNumbersUnavailable) {
			http.Error(w, "One or more numbers are no longer available", http.StatusConflict)
		} else {
			http.Error(w, fmt.Sprintf("Failed to create promo purchase: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if h.Publisher != nil {
		if err := h.Publisher.Publish(r.Context(), websockets.NewNumberUpdate(req.BoardId, req.Numbers, models.SOLD)); err != nil {
			slog.Error("failed to publish number update", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
