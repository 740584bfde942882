package board_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alexm/numbers-board/pkg/handlers/board"
	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/pricing"
	"github.com/alexm/numbers-board/pkg/storage/mocks"
)

func getWithBoardId(h http.HandlerFunc, boardID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/boards/"+boardID+"/numbers", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("boardId", boardID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestListNumbers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		holdID := "hold-abc"
		numbers := []models.BoardNumber{
			{BoardId: "board-1", Number: 1, Status: models.AVAILABLE},
			{BoardId: "board-1", Number: 2, Status: models.HELD, HoldId: &holdID},
			{BoardId: "board-1", Number: 3, Status: models.SOLD},
		}

		mockStorage := new(mocks.Storage)
		mockStorage.On("ListBoardNumbers", mock.Anything, "board-1").Return(numbers, nil)

		h := board.NewBoardHandler(mockStorage)

		rr := getWithBoardId(h.ListNumbers, "board-1")

		assert.Equal(t, http.StatusOK, rr.Code)

		var got []models.BoardNumber
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Len(t, got, 3)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Storage failure", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ListBoardNumbers", mock.Anything, "board-1").Return(nil, errors.New("query failed"))

		h := board.NewBoardHandler(mockStorage)

		rr := getWithBoardId(h.ListNumbers, "board-1")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestGetQuote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := board.NewBoardHandler(new(mocks.Storage))

		req := httptest.NewRequest(http.MethodGet, "/quote?quantity=6", nil)
		rr := httptest.NewRecorder()

		h.GetQuote(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got board.Quote
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 6, got.Quantity)
		assert.Equal(t, pricing.Subtotal(6), got.SubtotalCents)
		assert.Equal(t, got.SubtotalCents+got.FeeCents, got.TotalCents)
	})

	t.Run("Rejects missing or non-positive quantity", func(t *testing.T) {
		h := board.NewBoardHandler(new(mocks.Storage))

		for _, query := range []string{"", "?quantity=0", "?quantity=-2", "?quantity=abc"} {
			req := httptest.NewRequest(http.MethodGet, "/quote"+query, nil)
			rr := httptest.NewRecorder()

			h.GetQuote(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
	})
}
