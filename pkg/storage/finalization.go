package storage

import (
	"context"

	"github.com/alexm/numbers-board/pkg/models"
)

// FinalizationStore defines the privileged interface for converting a hold
// into a permanent sale. The flip to sold and the purchase insert are
// separate writes with an explicit compensating rollback, so this should
// only be exposed to the webhook finalizers.
type FinalizationStore interface {
	// FinalizeSale conditionally flips the hold's numbers from held to sold,
	// stamping the buyer's display name and message, then inserts the
	// purchase record. If the purchase insert fails the numbers are reverted
	// to held and re-linked to the hold before the error is returned. On
	// success the hold row is deleted best-effort.
	FinalizeSale(ctx context.Context, hold *models.Hold, paymentRef string, amountCents int64) (*models.Purchase, error)
}
