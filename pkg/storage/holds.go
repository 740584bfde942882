package storage

import (
	"context"
	"time"

	"github.com/alexm/numbers-board/pkg/models"
)

// HoldReader defines the interface for reading holds.
type HoldReader interface {
	// GetHold retrieves a hold by its ID. Returns ErrHoldNotFound if it does
	// not exist.
	GetHold(ctx context.Context, holdID string) (*models.Hold, error)
}

// HoldManager defines the interface for creating and releasing holds.
type HoldManager interface {
	// CreateHold inserts the hold and atomically claims the requested
	// numbers, flipping each from available to held only if it is still
	// available. If any number has been taken the whole claim fails with
	// ErrNumbersUnavailable and no number is left held.
	CreateHold(ctx context.Context, hold *models.Hold, numbers []int) (*models.Hold, error)

	// ReleaseHold returns a hold's numbers to available and deletes the hold
	// row. Numbers already finalized to sold are left untouched. Idempotent;
	// returns the count of numbers actually released.
	ReleaseHold(ctx context.Context, holdID string) (int, error)

	// ReleaseExpiredHolds releases every held number whose hold expiry has
	// passed as of now, pruning orphaned hold rows opportunistically.
	// Idempotent; returns the count of numbers released.
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error)
}

// HoldStore combines the reader and manager interfaces.
type HoldStore interface {
	HoldReader
	HoldManager
}
