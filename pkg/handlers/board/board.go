package board

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alexm/numbers-board/pkg/pricing"
	"github.com/alexm/numbers-board/pkg/storage"
)

// BoardHandler holds the dependencies for the read-only board view.
type BoardHandler struct {
	Store storage.NumberReader
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(store storage.NumberReader) *BoardHandler {
	return &BoardHandler{Store: store}
}

// ListNumbers returns every number on a board for the grid view.
func (h *BoardHandler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardId")
	if boardID == "" {
		http.Error(w, "boardId is required", http.StatusBadRequest)
		return
	}

	numbers, err := h.Store.ListBoardNumbers(r.Context(), boardID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve numbers: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(numbers); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// Quote is the response body for a pricing quote.
type Quote struct {
	Quantity      int   `json:"quantity"`
	SubtotalCents int64 `json:"subtotal_cents"`
	FeeCents      int64 `json:"fee_cents"`
	TotalCents    int64 `json:"total_cents"`
	SavingsCents  int64 `json:"savings_cents"`
	FreeNumbers   int   `json:"free_numbers"`
}

// GetQuote returns the price breakdown for a quantity. The same pricing
// functions feed the checkout session, so the quote always matches the
// charge.
func (h *BoardHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	var quantity int
	if _, err := fmt.Sscanf(r.URL.Query().Get("quantity"), "%d", &quantity); err != nil || quantity < 1 {
		http.Error(w, "a positive quantity query parameter is required", http.StatusBadRequest)
		return
	}

	subtotal := pricing.Subtotal(quantity)
	fee := pricing.Fee(subtotal)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Quote{
		Quantity:      quantity,
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    subtotal + fee,
		SavingsCents:  pricing.Savings(quantity),
		FreeNumbers:   pricing.FreeNumbers(quantity),
	}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
