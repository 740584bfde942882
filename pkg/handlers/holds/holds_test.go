package holds_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alexm/numbers-board/pkg/handlers/holds"
	"github.com/alexm/numbers-board/pkg/models"
	schedulermocks "github.com/alexm/numbers-board/pkg/scheduler/mocks"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/storage/mocks"
	"github.com/alexm/numbers-board/pkg/websockets"
)

func TestCreateHold(t *testing.T) {
	newHold := holds.NewHold{
		BoardId:     "board-1",
		Numbers:     []int{7, 8, 9},
		DisplayName: "The Smiths",
		Email:       "smiths@example.com",
	}
	createdHold := &models.Hold{
		Id:          "hold-abc",
		BoardId:     "board-1",
		Email:       "smiths@example.com",
		DisplayName: "The Smiths",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(models.HoldTTL),
	}

	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("CreateHold", mock.Anything, mock.Anything, []int{7, 8, 9}).Return(createdHold, nil)

		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("ScheduleRelease", mock.Anything, "hold-abc", mock.Anything).Return(nil)

		h := holds.NewHoldsHandler(mockStorage, mockScheduler, &websockets.NoOpPublisher{})

		body, _ := json.Marshal(newHold)
		req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateHold(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp holds.HoldCreated
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "hold-abc", resp.HoldId)
		assert.Equal(t, 3, resp.NumbersHeld)

		mockStorage.AssertExpectations(t)
		mockScheduler.AssertExpectations(t)
	})

	t.Run("Conflict when numbers are taken", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("CreateHold", mock.Anything, mock.Anything, mock.Anything).Return(nil, storage.ErrNumbersUnavailable)

		h := holds.NewHoldsHandler(mockStorage, new(schedulermocks.Scheduler), &websockets.NoOpPublisher{})

		body, _ := json.Marshal(newHold)
		req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateHold(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Created even if release enqueue fails", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("CreateHold", mock.Anything, mock.Anything, mock.Anything).Return(createdHold, nil)

		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("ScheduleRelease", mock.Anything, "hold-abc", mock.Anything).Return(errors.New("sqs unavailable"))

		h := holds.NewHoldsHandler(mockStorage, mockScheduler, &websockets.NoOpPublisher{})

		body, _ := json.Marshal(newHold)
		req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateHold(rr, req)

		// The sweep is the backstop; the hold itself succeeded.
		assert.Equal(t, http.StatusCreated, rr.Code)
		mockScheduler.AssertExpectations(t)
	})

	t.Run("Internal error on storage failure", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("CreateHold", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb down"))

		h := holds.NewHoldsHandler(mockStorage, new(schedulermocks.Scheduler), &websockets.NoOpPublisher{})

		body, _ := json.Marshal(newHold)
		req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateHold(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Rejects invalid body", func(t *testing.T) {
		h := holds.NewHoldsHandler(new(mocks.Storage), new(schedulermocks.Scheduler), &websockets.NoOpPublisher{})

		req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader([]byte("not json")))
		rr := httptest.NewRecorder()

		h.CreateHold(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Validation failures", func(t *testing.T) {
		cases := []struct {
			name string
			body holds.NewHold
		}{
			{"missing board_id", holds.NewHold{Numbers: []int{1}, DisplayName: "x", Email: "x@y.z"}},
			{"no numbers", holds.NewHold{BoardId: "b", DisplayName: "x", Email: "x@y.z"}},
			{"duplicate numbers", holds.NewHold{BoardId: "b", Numbers: []int{3, 3}, DisplayName: "x", Email: "x@y.z"}},
			{"non-positive number", holds.NewHold{BoardId: "b", Numbers: []int{0}, DisplayName: "x", Email: "x@y.z"}},
			{"missing display_name", holds.NewHold{BoardId: "b", Numbers: []int{1}, Email: "x@y.z"}},
			{"missing email", holds.NewHold{BoardId: "b", Numbers: []int{1}, DisplayName: "x"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := holds.NewHoldsHandler(new(mocks.Storage), new(schedulermocks.Scheduler), &websockets.NoOpPublisher{})

				body, _ := json.Marshal(tc.body)
				req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
				rr := httptest.NewRecorder()

				h.CreateHold(rr, req)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
			})
		}
	})
}
