package holds

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/scheduler"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/websockets"
)

// releaseGrace pads the scheduled release past the hold expiry so the
// conditional release never fires on a hold that is still enforceable.
const releaseGrace = time.Minute

// HoldsHandler holds the dependencies for hold-related handlers.
type HoldsHandler struct {
	Store     storage.ApiStore
	Scheduler scheduler.Scheduler
	Publisher websockets.Publisher
}

// NewHoldsHandler creates a new HoldsHandler.
func NewHoldsHandler(store storage.ApiStore, sched scheduler.Scheduler, publisher websockets.Publisher) *HoldsHandler {
	return &HoldsHandler{Store: store, Scheduler: sched, Publisher: publisher}
}

// NewHold is the request body for creating a hold.
type NewHold struct {
	BoardId     string  `json:"board_id"`
	Numbers     []int   `json:"numbers"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	Message     *string `json:"message,omitempty"`
}

// HoldCreated is the response body for a successful hold.
type HoldCreated struct {
	HoldId      string    `json:"hold_id"`
	NumbersHeld int       `json:"numbers_held"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CreateHold handles the logic for claiming a set of numbers.
func (h *HoldsHandler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req NewHold
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := validate(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hold := &models.Hold{
		BoardId:     req.BoardId,
		Email:       req.Email,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
		Message:     req.Message,
	}

	created, err := h.Store.CreateHold(r.Context(), hold, req.Numbers)
	if err != nil {
		if errors.Is(err, storage.ErrNumbersUnavailable) {
			// Distinguishable from other failures so the caller prompts
			// re-selection instead of a generic error.
			http.Error(w, "One or more numbers are no longer available", http.StatusConflict)
		} else {
			slog.Error("failed to create hold", "error", err)
			http.Error(w, fmt.Sprintf("Failed to create hold: %v", err), http.StatusInternalServerError)
		}
		return
	}

	// Schedule the release for just past expiry. The sweep covers us if
	// this enqueue fails, so the hold is still created.
	if h.Scheduler != nil {
		delay := time.Until(created.ExpiresAt) + releaseGrace
		if err := h.Scheduler.ScheduleRelease(r.Context(), created.Id, delay); err != nil {
			slog.Error("hold created but release enqueue failed", "holdId", created.Id, "error", err)
		}
	}

	// Let board viewers grey the numbers out. Best-effort.
	if err := h.Publisher.Publish(r.Context(), websockets.NewNumberUpdate(created.BoardId, req.Numbers, models.HELD)); err != nil {
		slog.Error("failed to publish number update", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(HoldCreated{
		HoldId:      created.Id,
		NumbersHeld: len(req.Numbers),
		ExpiresAt:   created.ExpiresAt,
	}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func validate(req *NewHold) error {
	if req.BoardId == "" {
		return errors.New("board_id is required")
	}
	if len(req.Numbers) == 0 {
		return errors.New("at least one number is required")
	}
	seen := make(map[int]struct{}, len(req.Numbers))
	for _, n := range req.Numbers {
		if n < 1 {
			return fmt.Errorf("invalid number %d", n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = struct{}{}
	}
	if req.DisplayName == "" {
		return errors.New("display_name is required")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	return nil
}
