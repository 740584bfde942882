// Package payments abstracts the two hosted-checkout processors behind a
// single adapter surface. The only processor-specific behavior is how the
// hold ID correlation token rides on the session (Stripe: structured
// metadata; Square: the free-text payment note) and how webhook signatures
// are verified; nothing outside the adapters branches on processor identity.
package payments

import (
	"context"
	"errors"
)

// ProviderName identifies a payment processor integration.
type ProviderName string

const (
	ProviderStripe ProviderName = "stripe"
	ProviderSquare ProviderName = "square"
)

// CheckoutRequest carries everything needed to open a hosted payment session.
// Amounts are in cents and always computed server-side from the pricing
// package.
type CheckoutRequest struct {
	HoldID        string
	Quantity      int
	SubtotalCents int64
	FeeCents      int64
}

// TotalCents is the full amount the buyer will be charged.
func (r CheckoutRequest) TotalCents() int64 {
	return r.SubtotalCents + r.FeeCents
}

// Provider opens hosted payment sessions with an external processor.
type Provider interface {
	// Name identifies the processor for routing and logging.
	Name() ProviderName

	// CreateCheckout opens a hosted session embedding the hold ID as the
	// correlation token and returns the processor-hosted redirect URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// EventKind classifies a normalized webhook notification.
type EventKind string

const (
	// EventPaymentSucceeded finalizes the correlated hold into a sale.
	EventPaymentSucceeded EventKind = "payment_succeeded"

	// EventPaymentFailed releases the correlated hold immediately. Only
	// Square emits explicit failure callbacks.
	EventPaymentFailed EventKind = "payment_failed"

	// EventIgnored is acknowledged and not acted upon.
	EventIgnored EventKind = "ignored"
)

// Event is a processor-agnostic webhook notification. HoldID is the
// correlation token extracted from the processor's wire format; it is empty
// when the processor did not carry one, which the caller must treat as a
// malformed event for actionable kinds.
type Event struct {
	Kind             EventKind
	HoldID           string
	PaymentReference string
	AmountCents      int64
}

// WebhookVerifier authenticates and normalizes raw webhook deliveries.
type WebhookVerifier interface {
	// ParseWebhook verifies the payload's signature and maps it to an Event.
	// Returns ErrInvalidSignature when authentication fails; the payload
	// must not be processed in any way in that case.
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// ErrInvalidSignature is returned when a webhook's signature cannot be
// verified. Logged as a security event, never processed.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrMalformedEvent is returned when a webhook payload cannot be decoded.
var ErrMalformedEvent = errors.New("malformed webhook payload")
