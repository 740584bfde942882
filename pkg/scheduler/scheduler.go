package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for a component that schedules a hold's
// release at its expiry. The periodic sweep remains the correctness
// backstop; the scheduled release just returns numbers to the board
// promptly when a buyer abandons checkout.
type Scheduler interface {
	// ScheduleRelease enqueues a release of the hold after delay.
	ScheduleRelease(ctx context.Context, holdID string, delay time.Duration) error
}

// ReleaseMessage is the queue payload consumed by the release worker.
type ReleaseMessage struct {
	HoldID string `json:"hold_id"`
}
