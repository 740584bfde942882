package models

import (
	"time"
)

// NumberStatus defines the possible states of a board number.
type NumberStatus string

const (
	AVAILABLE NumberStatus = "available"
	HELD      NumberStatus = "held"
	SOLD      NumberStatus = "sold"
)

// BoardNumber represents a single purchasable number on a fundraiser board.
// It includes dynamodbav tags for marshalling.
type BoardNumber struct {
	BoardId       string       `json:"board_id" dynamodbav:"board_id"`
	Number        int          `json:"number" dynamodbav:"number"`
	Status        NumberStatus `json:"status" dynamodbav:"status"`
	HoldId        *string      `json:"hold_id,omitempty" dynamodbav:"hold_id,omitempty"`
	HoldExpiresAt *time.Time   `json:"hold_expires_at,omitempty" dynamodbav:"hold_expires_at,omitempty"`
	DisplayName   *string      `json:"display_name,omitempty" dynamodbav:"display_name,omitempty"`
	Message       *string      `json:"message,omitempty" dynamodbav:"message,omitempty"`
	PromoCode     *string      `json:"promo_code,omitempty" dynamodbav:"promo_code,omitempty"`
}

// Hold represents a buyer's temporary claim over a set of board numbers.
// Numbers link back to a hold via their hold_id attribute; the hold itself
// carries no inventory state.
type Hold struct {
	Id          string    `json:"id" dynamodbav:"id"`
	BoardId     string    `json:"board_id" dynamodbav:"board_id"`
	Email       string    `json:"email" dynamodbav:"email"`
	Phone       *string   `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	DisplayName string    `json:"display_name" dynamodbav:"display_name"`
	Message     *string   `json:"message,omitempty" dynamodbav:"message,omitempty"`
	ExpiresAt   time.Time `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Expired reports whether the hold's claim has lapsed at the given time.
func (h *Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Purchase is the permanent record of a completed sale. PaymentReference is
// the processor's unique payment identifier and doubles as the idempotency
// key for webhook redelivery; it is nil for promo purchases.
type Purchase struct {
	Id               string    `json:"id" dynamodbav:"id"`
	BoardId          string    `json:"board_id" dynamodbav:"board_id"`
	Email            string    `json:"email" dynamodbav:"email"`
	Phone            *string   `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	DisplayName      string    `json:"display_name" dynamodbav:"display_name"`
	Message          *string   `json:"message,omitempty" dynamodbav:"message,omitempty"`
	AmountCents      int64     `json:"amount_cents" dynamodbav:"amount_cents"`
	PaymentReference *string   `json:"payment_reference,omitempty" dynamodbav:"payment_reference,omitempty"`
	PromoCode        *string   `json:"promo_code,omitempty" dynamodbav:"promo_code,omitempty"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"created_at"`
}

// HoldTTL is how long a hold blocks other buyers before the sweep may
// release it.
const HoldTTL = 10 * time.Minute
