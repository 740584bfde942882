package checkout_test

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

	"github.com/alexm/numbers-board/pkg/handlers/checkout"
	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/payments"
	paymentmocks "github.com/alexm/numbers-board/pkg/payments/mocks"
	"github.com/alexm/numbers-board/pkg/pricing"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/storage/mocks"
)

func stripeProvider() *paymentmocks.Provider {
	p := new(paymentmocks.Provider)
	p.On("Name").Return(payments.ProviderStripe)
	return p
}

func TestCreateCheckout(t *testing.T) {
	liveHold := &models.Hold{
		Id:        "hold-abc",
		BoardId:   "board-1",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(liveHold, nil)

		provider := stripeProvider()
		provider.On("CreateCheckout", mock.Anything, payments.CheckoutRequest{
			HoldID:        "hold-abc",
			Quantity:      6,
			SubtotalCents: pricing.Subtotal(6),
			FeeCents:      pricing.Fee(pricing.Subtotal(6)),
		}).Return("https://checkout.example/session", nil)

		h := checkout.NewCheckoutHandler(mockStorage, provider)

		body, _ := json.Marshal(checkout.NewCheckout{HoldId: "hold-abc", Quantity: 6, Provider: "stripe"})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateCheckout(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp checkout.CheckoutCreated
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout.example/session", resp.URL)
		assert.Equal(t, pricing.Subtotal(6), resp.SubtotalCents)
		assert.Equal(t, resp.SubtotalCents+resp.FeeCents, resp.TotalCents)

		mockStorage.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("Unknown provider", func(t *testing.T) {
		h := checkout.NewCheckoutHandler(new(mocks.Storage), stripeProvider())

		body, _ := json.Marshal(checkout.NewCheckout{HoldId: "hold-abc", Quantity: 1, Provider: "paypal"})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateCheckout(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Hold not found", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "missing").Return(nil, storage.ErrHoldNotFound)

		h := checkout.NewCheckoutHandler(mockStorage, stripeProvider())

		body, _ := json.Marshal(checkout.NewCheckout{HoldId: "missing", Quantity: 1, Provider: "stripe"})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateCheckout(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Hold expired", func(t *testing.T) {
		expired := &models.Hold{Id: "hold-old", BoardId: "board-1", ExpiresAt: time.Now().Add(-time.Minute)}

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-old").Return(expired, nil)

		h := checkout.NewCheckoutHandler(mockStorage, stripeProvider())

		body, _ := json.Marshal(checkout.NewCheckout{HoldId: "hold-old", Quantity: 1, Provider: "stripe"})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateCheckout(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Provider failure maps to bad gateway", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(liveHold, nil)

		provider := stripeProvider()
		provider.On("CreateCheckout", mock.Anything, mock.Anything).Return("", errors.New("stripe 500"))

		h := checkout.NewCheckoutHandler(mockStorage, provider)

		body, _ := json.Marshal(checkout.NewCheckout{HoldId: "hold-abc", Quantity: 1, Provider: "stripe"})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateCheckout(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		provider.AssertExpectations(t)
	})

	t.Run("Rejects missing hold_id or quantity", func(t *testing.T) {
		h := checkout.NewCheckoutHandler(new(mocks.Storage), stripeProvider())

		for _, body := range []checkout.NewCheckout{
			{Quantity: 1, Provider: "stripe"},
			{HoldId: "hold-abc", Quantity: 0, Provider: "stripe"},
		} {
			b, _ := json.Marshal(body)
			req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(b))
			rr := httptest.NewRecorder()

			h.CreateCheckout(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
	})
}
