package webhooks_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alexm/numbers-board/pkg/handlers/webhooks"
	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/payments"
	paymentmocks "github.com/alexm/numbers-board/pkg/payments/mocks"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/storage/mocks"
	"github.com/alexm/numbers-board/pkg/websockets"
)

// newHandler wires a handler where the same verifier answers both routes;
// the tests only ever hit the Stripe route.
func newHandler(store webhooks.Store, verifier payments.WebhookVerifier) *webhooks.WebhooksHandler {
	return webhooks.NewWebhooksHandler(store, verifier, verifier, &websockets.NoOpPublisher{})
}

func postStripe(h *webhooks.WebhooksHandler, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(payload)))
	req.Header.Set("Stripe-Signature", "t=123,v1=abc")
	rr := httptest.NewRecorder()
	h.HandleStripe(rr, req)
	return rr
}

func TestHandleWebhook(t *testing.T) {
	hold := &models.Hold{
		Id:        "hold-abc",
		BoardId:   "board-1",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	succeeded := &payments.Event{
		Kind:             payments.EventPaymentSucceeded,
		HoldID:           "hold-abc",
		PaymentReference: "pi_123",
		AmountCents:      10190,
	}

	t.Run("Rejects invalid signature without touching the store", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, payments.ErrInvalidSignature)

		mockStorage := new(mocks.Storage)
		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"forged":"payload"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockStorage.AssertNotCalled(t, "GetHold", mock.Anything, mock.Anything)
		mockStorage.AssertNotCalled(t, "FinalizeSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects malformed event", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, payments.ErrMalformedEvent)

		h := newHandler(new(mocks.Storage), verifier)

		rr := postStripe(h, `{`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Acknowledges ignored event kinds", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(&payments.Event{Kind: payments.EventIgnored}, nil)

		h := newHandler(new(mocks.Storage), verifier)

		rr := postStripe(h, `{"type":"payment.created"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true,"processed":false}`, rr.Body.String())
	})

	t.Run("Finalizes a successful payment", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(succeeded, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(hold, nil)
		mockStorage.On("GetPurchaseByPaymentReference", mock.Anything, "pi_123").Return(nil, nil)
		mockStorage.On("FinalizeSale", mock.Anything, hold, "pi_123", int64(10190)).
			Return(&models.Purchase{Id: "purchase-1", BoardId: "board-1", AmountCents: 10190}, nil)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true,"processed":true}`, rr.Body.String())
		mockStorage.AssertExpectations(t)
	})

	t.Run("Duplicate delivery is acknowledged once finalized", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(succeeded, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(hold, nil)
		mockStorage.On("GetPurchaseByPaymentReference", mock.Anything, "pi_123").
			Return(&models.Purchase{Id: "purchase-1"}, nil)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true,"processed":false}`, rr.Body.String())
		mockStorage.AssertNotCalled(t, "FinalizeSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing hold returns not found", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(succeeded, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(nil, storage.ErrHoldNotFound)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Event without hold reference is rejected", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).
			Return(&payments.Event{Kind: payments.EventPaymentSucceeded, PaymentReference: "pi_123"}, nil)

		h := newHandler(new(mocks.Storage), verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Finalization losing the race returns not found", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(succeeded, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(hold, nil)
		mockStorage.On("GetPurchaseByPaymentReference", mock.Anything, "pi_123").Return(nil, nil)
		mockStorage.On("FinalizeSale", mock.Anything, hold, "pi_123", int64(10190)).
			Return(nil, storage.ErrHoldNotFound)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Finalization failure asks for redelivery", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(succeeded, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(hold, nil)
		mockStorage.On("GetPurchaseByPaymentReference", mock.Anything, "pi_123").Return(nil, nil)
		mockStorage.On("FinalizeSale", mock.Anything, hold, "pi_123", int64(10190)).
			Return(nil, errors.New("purchase insert failed, numbers reverted"))

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Failed payment releases the hold", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).
			Return(&payments.Event{Kind: payments.EventPaymentFailed, HoldID: "hold-abc", PaymentReference: "sq_9"}, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-abc").Return(hold, nil)
		mockStorage.On("ReleaseHold", mock.Anything, "hold-abc").Return(3, nil)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"payment.updated"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true,"processed":true}`, rr.Body.String())
		mockStorage.AssertExpectations(t)
	})

	t.Run("Failed payment for a gone hold is acknowledged", func(t *testing.T) {
		verifier := new(paymentmocks.WebhookVerifier)
		verifier.On("ParseWebhook", mock.Anything, mock.Anything).
			Return(&payments.Event{Kind: payments.EventPaymentFailed, HoldID: "hold-gone"}, nil)

		mockStorage := new(mocks.Storage)
		mockStorage.On("GetHold", mock.Anything, "hold-gone").Return(nil, storage.ErrHoldNotFound)

		h := newHandler(mockStorage, verifier)

		rr := postStripe(h, `{"type":"payment.updated"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything)
	})
}
