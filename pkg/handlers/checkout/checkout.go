package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexm/numbers-board/pkg/payments"
	"github.com/alexm/numbers-board/pkg/pricing"
	"github.com/alexm/numbers-board/pkg/storage"
)

// CheckoutHandler holds the dependencies for payment initiation.
type CheckoutHandler struct {
	Store     storage.ApiStore
	Providers map[payments.ProviderName]payments.Provider
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(store storage.ApiStore, providers ...payments.Provider) *CheckoutHandler {
	byName := make(map[payments.ProviderName]payments.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &CheckoutHandler{Store: store, Providers: byName}
}

// NewCheckout is the request body for opening a payment session.
type NewCheckout struct {
	HoldId   string `json:"hold_id"`
	Quantity int    `json:"quantity"`
	Provider string `json:"provider"`
}

// CheckoutCreated is the response body carrying the hosted redirect URL.
type CheckoutCreated struct {
	URL           string `json:"url"`
	SubtotalCents int64  `json:"subtotal_cents"`
	FeeCents      int64  `json:"fee_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// CreateCheckout opens a hosted payment session for an existing hold. The
// charge amount is always derived from the pricing package, never from the
// client.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req NewCheckout
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.HoldId == "" || req.Quantity < 1 {
		http.Error(w, "hold_id and a positive quantity are required", http.StatusBadRequest)
		return
	}

	provider, ok := h.Providers[payments.ProviderName(req.Provider)]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown payment provider %q", req.Provider), http.StatusBadRequest)
		return
	}

	hold, err := h.Store.GetHold(r.Context(), req.HoldId)
	if err != nil {
		if errors.Is(err, storage.ErrHoldNotFound) {
			http.Error(w, "Hold not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to load hold: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if hold.Expired(time.Now()) {
		http.Error(w, "Hold has expired, please re-select your numbers", http.StatusConflict)
		return
	}

	subtotal := pricing.Subtotal(req.Quantity)
	fee := pricing.Fee(subtotal)

	url, err := provider.CreateCheckout(r.Context(), payments.CheckoutRequest{
		HoldID:        hold.Id,
		Quantity:      req.Quantity,
		SubtotalCents: subtotal,
		FeeCents:      fee,
	})
	if err != nil {
		// Surface processor detail for diagnostics; the processor call is
		// retryable by the client.
		slog.Error("payment session creation failed", "provider", provider.Name(), "holdId", hold.Id, "error", err)
		http.Error(w, fmt.Sprintf("Payment provider error: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CheckoutCreated{
		URL:           url,
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    subtotal + fee,
	}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
