package storage

import (
	"context"

	"github.com/alexm/numbers-board/pkg/models"
)

// PurchaseReader defines the interface for reading purchase records.
type PurchaseReader interface {
	// GetPurchaseByPaymentReference looks up a purchase by the processor's
	// payment identifier. Returns (nil, nil) when no purchase exists; this
	// is the idempotency probe for webhook redelivery.
	GetPurchaseByPaymentReference(ctx context.Context, paymentRef string) (*models.Purchase, error)

	// CountPromoPurchases returns how many purchases on a board used the
	// given promo code.
	CountPromoPurchases(ctx context.Context, boardID, promoCode string) (int, error)
}

// PromoPurchaser defines the interface for free promo-code allocations,
// which skip the hold/payment flow entirely.
type PromoPurchaser interface {
	// CreatePromoPurchase records a zero-amount purchase and flips the
	// requested numbers directly from available to sold. If any number has
	// been taken the purchase record is rolled back and the call fails with
	// ErrNumbersUnavailable.
	CreatePromoPurchase(ctx context.Context, purchase *models.Purchase, numbers []int) (*models.Purchase, error)
}
