// Package squarelinks implements the payment-link adapter on the Square
// REST API. Square has no structured metadata on payment links, so the hold
// ID rides in the free-text payment note and comes back on the
// payment.updated webhook as Payment.Note.
package squarelinks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/alexm/numbers-board/pkg/payments"
)

const (
	ProductionBaseURL = "https://connect.squareup.com"
	SandboxBaseURL    = "https://connect.squareupsandbox.com"

	// squareVersion pins the REST API version we are written against.
	squareVersion = "2025-01-23"
)

// Adapter implements payments.Provider and payments.WebhookVerifier using
// Square payment links.
type Adapter struct {
	HTTPClient *http.Client
	BaseURL    string

	accessToken     string
	locationID      string
	signatureKey    string
	notificationURL string
	siteURL         string
}

// New creates a Square adapter. notificationURL must be the exact webhook
// URL configured in the Square dashboard; it is part of the signed material.
func New(accessToken, locationID, signatureKey, notificationURL, siteURL, baseURL string) *Adapter {
	return &Adapter{
		HTTPClient:      http.DefaultClient,
		BaseURL:         baseURL,
		accessToken:     accessToken,
		locationID:      locationID,
		signatureKey:    signatureKey,
		notificationURL: notificationURL,
		siteURL:         siteURL,
	}
}

// Make sure we conform to the interfaces
var _ payments.Provider = (*Adapter)(nil)
var _ payments.WebhookVerifier = (*Adapter)(nil)

// Name identifies the processor.
func (a *Adapter) Name() payments.ProviderName {
	return payments.ProviderSquare
}

type paymentLinkRequest struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	QuickPay        quickPay        `json:"quick_pay"`
	CheckoutOptions checkoutOptions `json:"checkout_options"`
	PaymentNote     string          `json:"payment_note"`
}

type quickPay struct {
	Name       string `json:"name"`
	PriceMoney money  `json:"price_money"`
	LocationID string `json:"location_id"`
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type checkoutOptions struct {
	RedirectURL string `json:"redirect_url"`
}

type paymentLinkResponse struct {
	PaymentLink struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"payment_link"`
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
	} `json:"errors"`
}

// CreateCheckout opens a quick-pay payment link for the full charge amount
// with the hold ID as the payment note.
func (a *Adapter) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (string, error) {
	plural := ""
	if req.Quantity > 1 {
		plural = "s"
	}

	body, err := json.Marshal(paymentLinkRequest{
		IdempotencyKey: uuid.New().String(),
		QuickPay: quickPay{
			Name:       fmt.Sprintf("Fundraiser Number%s (%d)", plural, req.Quantity),
			PriceMoney: money{Amount: req.TotalCents(), Currency: "AUD"},
			LocationID: a.locationID,
		},
		CheckoutOptions: checkoutOptions{RedirectURL: a.siteURL + "/success.html"},
		PaymentNote:     req.HoldID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment link request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.BaseURL+"/v2/online-checkout/payment-links", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build payment link request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Square-Version", squareVersion)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("square payment link request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read payment link response: %w", err)
	}

	var linkResp paymentLinkResponse
	if err := json.Unmarshal(respBody, &linkResp); err != nil {
		return "", fmt.Errorf("failed to decode payment link response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || linkResp.PaymentLink.URL == "" {
		detail := ""
		if len(linkResp.Errors) > 0 {
			detail = fmt.Sprintf(": %s %s", linkResp.Errors[0].Code, linkResp.Errors[0].Detail)
		}
		return "", fmt.Errorf("square rejected payment link request (status %d)%s", resp.StatusCode, detail)
	}

	return linkResp.PaymentLink.URL, nil
}

// webhookEvent mirrors the slice of Square's payment.updated payload we
// consume.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Payment struct {
				ID         string `json:"id"`
				Status     string `json:"status"`
				Note       string `json:"note"`
				TotalMoney money  `json:"total_money"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies the x-square-hmacsha256-signature header and
// normalizes the event. Square signs base64(HMAC-SHA256(notificationURL ||
// body)) with the subscription's signature key.
func (a *Adapter) ParseWebhook(payload []byte, signatureHeader string) (*payments.Event, error) {
	if !a.verifySignature(payload, signatureHeader) {
		return nil, payments.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrMalformedEvent, err)
	}

	if event.Type != "payment.updated" {
		return &payments.Event{Kind: payments.EventIgnored}, nil
	}

	payment := event.Data.Object.Payment
	out := &payments.Event{
		HoldID:           payment.Note,
		PaymentReference: payment.ID,
		AmountCents:      payment.TotalMoney.Amount,
	}

	switch payment.Status {
	case "COMPLETED":
		out.Kind = payments.EventPaymentSucceeded
	case "FAILED", "CANCELED":
		out.Kind = payments.EventPaymentFailed
	default:
		// APPROVED, PENDING and friends resolve to a later delivery.
		out.Kind = payments.EventIgnored
	}

	return out, nil
}

func (a *Adapter) verifySignature(payload []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(a.signatureKey))
	mac.Write([]byte(a.notificationURL))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureHeader)) == 1
}
