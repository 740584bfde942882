// Package webhooks finalizes holds when a payment processor reports an
// outcome. Deliveries are at-least-once and may arrive duplicated, out of
// order, or concurrently with the expiry sweep; correctness rests on the
// purchase idempotency probe plus the conditional held-to-sold flip in the
// storage layer, not on any locking here.
package webhooks

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/payments"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/websockets"
)

// Store is the slice of the data layer the finalizer needs.
type Store interface {
	storage.HoldStore
	storage.PurchaseReader
	storage.FinalizationStore
}

// WebhooksHandler holds the dependencies for payment-outcome handling.
type WebhooksHandler struct {
	Store     Store
	Stripe    payments.WebhookVerifier
	Square    payments.WebhookVerifier
	Publisher websockets.Publisher
}

// NewWebhooksHandler creates a new WebhooksHandler.
func NewWebhooksHandler(store Store, stripe, square payments.WebhookVerifier, publisher websockets.Publisher) *WebhooksHandler {
	return &WebhooksHandler{Store: store, Stripe: stripe, Square: square, Publisher: publisher}
}

// HandleStripe processes Stripe checkout.session.completed deliveries.
func (h *WebhooksHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.Stripe, r.Header.Get("Stripe-Signature"))
}

// HandleSquare processes Square payment.updated deliveries.
func (h *WebhooksHandler) HandleSquare(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.Square, r.Header.Get("x-square-hmacsha256-signature"))
}

// handle runs the finalization state machine for one delivery. Response
// codes steer the processor's redelivery: 401/400 are terminal (the event
// will never become processable), 200 acknowledges everything handled or
// deliberately ignored, and 5xx asks for a retry on transient store
// failures.
func (h *WebhooksHandler) handle(w http.ResponseWriter, r *http.Request, verifier payments.WebhookVerifier, signature string) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := verifier.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			slog.Error("SECURITY: webhook signature verification failed", "remoteAddr", r.RemoteAddr)
			http.Error(w, "Signature verification failed", http.StatusUnauthorized)
			return
		}
		http.Error(w, fmt.Sprintf("Malformed event: %v", err), http.StatusBadRequest)
		return
	}

	switch event.Kind {
	case payments.EventIgnored:
		ack(w, false)

	case payments.EventPaymentFailed:
		h.handleFailure(w, r, event)

	case payments.EventPaymentSucceeded:
		h.handleSuccess(w, r, event)

	default:
		ack(w, false)
	}
}

// handleFailure releases the correlated hold so the numbers go back on the
// board immediately instead of waiting out the expiry.
func (h *WebhooksHandler) handleFailure(w http.ResponseWriter, r *http.Request, event *payments.Event) {
	if event.HoldID == "" {
		// A failure we cannot correlate; the sweep will clean up.
		ack(w, false)
		return
	}

	hold, err := h.Store.GetHold(r.Context(), event.HoldID)
	if err != nil {
		if errors.Is(err, storage.ErrHoldNotFound) {
			ack(w, false)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to load hold: %v", err), http.StatusInternalServerError)
		return
	}

	released, err := h.Store.ReleaseHold(r.Context(), event.HoldID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to release hold: %v", err), http.StatusInternalServerError)
		return
	}

	slog.Info("released hold after failed payment", "holdId", event.HoldID, "released", released)
	h.publishBoard(r, hold.BoardId, models.AVAILABLE)
	ack(w, true)
}

// handleSuccess converts the correlated hold into a permanent sale.
func (h *WebhooksHandler) handleSuccess(w http.ResponseWriter, r *http.Request, event *payments.Event) {
	// (a) The correlation token is the only link back to the hold; without
	// it there is nothing safe to do.
	if event.HoldID == "" {
		http.Error(w, "Event carries no hold reference", http.StatusBadRequest)
		return
	}
	if event.PaymentReference == "" {
		http.Error(w, "Event carries no payment reference", http.StatusBadRequest)
		return
	}

	// (b) A missing hold means it already expired or was already finalized.
	hold, err := h.Store.GetHold(r.Context(), event.HoldID)
	if err != nil {
		if errors.Is(err, storage.ErrHoldNotFound) {
			http.Error(w, "Hold not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to load hold: %v", err), http.StatusInternalServerError)
		return
	}

	// (c) Idempotency: a purchase for this payment means a previous
	// delivery already finalized it.
	existing, err := h.Store.GetPurchaseByPaymentReference(r.Context(), event.PaymentReference)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to check for existing purchase: %v", err), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		slog.Info("payment already processed", "paymentRef", event.PaymentReference)
		ack(w, false)
		return
	}

	// (d)-(g) Flip the numbers, record the purchase, roll back on failure.
	purchase, err := h.Store.FinalizeSale(r.Context(), hold, event.PaymentReference, event.AmountCents)
	if err != nil {
		if errors.Is(err, storage.ErrHoldNotFound) {
			// The sweep released the numbers between the hold load and the
			// conditional flip.
			http.Error(w, "Hold no longer claims its numbers", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to finalize sale: %v", err), http.StatusInternalServerError)
		return
	}

	slog.Info("finalized sale", "holdId", hold.Id, "purchaseId", purchase.Id, "amountCents", purchase.AmountCents)
	h.publishBoard(r, hold.BoardId, models.SOLD)
	ack(w, true)
}

// publishBoard broadcasts a board refresh to live viewers. Best-effort; the
// numbers affected are whatever the hold claimed, so viewers reload the
// board rather than individual tiles.
func (h *WebhooksHandler) publishBoard(r *http.Request, boardID string, status models.NumberStatus) {
	if h.Publisher == nil {
		return
	}
	if err := h.Publisher.Publish(r.Context(), websockets.NewNumberUpdate(boardID, nil, status)); err != nil {
		slog.Error("failed to publish board update", "error", err)
	}
}

func ack(w http.ResponseWriter, processed bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"received":true,"processed":%t}`, processed)
}
