// Package stripecheckout implements the card-checkout payment adapter on
// Stripe hosted Checkout Sessions. The hold ID rides in the session
// metadata and comes back on the checkout.session.completed webhook.
package stripecheckout

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/alexm/numbers-board/pkg/payments"
)

// metadataHoldKey is the session metadata key carrying the correlation token.
const metadataHoldKey = "hold_id"

// Adapter implements payments.Provider and payments.WebhookVerifier using
// the Stripe API.
type Adapter struct {
	api           *client.API
	webhookSecret string
	siteURL       string
}

// New creates a Stripe adapter. siteURL is the base for the success/cancel
// redirect targets.
func New(secretKey, webhookSecret, siteURL string) *Adapter {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Adapter{
		api:           api,
		webhookSecret: webhookSecret,
		siteURL:       siteURL,
	}
}

// Make sure we conform to the interfaces
var _ payments.Provider = (*Adapter)(nil)
var _ payments.WebhookVerifier = (*Adapter)(nil)

// Name identifies the processor.
func (a *Adapter) Name() payments.ProviderName {
	return payments.ProviderStripe
}

// CreateCheckout opens a hosted Checkout Session with the subtotal and the
// processing fee as separate line items, so the receipt shows the same
// split the storefront quoted.
func (a *Adapter) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (string, error) {
	plural := ""
	if req.Quantity > 1 {
		plural = "s"
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "link"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyAUD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Fundraiser Number%s (%d)", plural, req.Quantity)),
						Description: stripe.String(fmt.Sprintf("%d lucky number%s for the draw", req.Quantity, plural)),
					},
					UnitAmount: stripe.Int64(req.SubtotalCents),
				},
				Quantity: stripe.Int64(1),
			},
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyAUD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Payment Processing Fee"),
						Description: stripe.String("Covers credit card processing costs"),
					},
					UnitAmount: stripe.Int64(req.FeeCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(a.siteURL + "/success.html"),
		CancelURL:  stripe.String(a.siteURL),
	}
	params.AddMetadata(metadataHoldKey, req.HoldID)

	session, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session creation failed: %w", err)
	}

	return session.URL, nil
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and normalizes the event. Only checkout.session.completed is acted
// upon; Stripe does not deliver explicit failure callbacks for hosted
// checkout, expiry handles abandoned sessions.
func (a *Adapter) ParseWebhook(payload []byte, signatureHeader string) (*payments.Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, a.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrInvalidSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return &payments.Event{Kind: payments.EventIgnored}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrMalformedEvent, err)
	}

	out := &payments.Event{
		Kind:        payments.EventPaymentSucceeded,
		HoldID:      session.Metadata[metadataHoldKey],
		AmountCents: session.AmountTotal,
	}
	if session.PaymentIntent != nil {
		out.PaymentReference = session.PaymentIntent.ID
	}

	return out, nil
}
