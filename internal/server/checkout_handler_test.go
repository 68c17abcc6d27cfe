package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/checkout"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/payment"
)

func TestInitiateCheckout_Created(t *testing.T) {
	env := newTestEnv()
	env.checkouts.initiateResult = &checkout.InitiateResult{
		CheckoutID:        "chk-1",
		ProviderSessionID: "sess_abc",
		ProviderPublicKey: "pk_test",
		Pricing:           domain.PricingResult{Subtotal: 500, ShippingCost: 50, Total: 550},
		Currency:          "INR",
		Status:            domain.CheckoutStatusWidgetOpen,
	}

	recorder := doRequest(t, env, "POST", "/api/v1/checkout",
		InitiateCheckoutRequestDTO{CustomerName: "Asha Rao", CustomerEmail: "asha@example.com"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "chk-1", resp.CheckoutID)
	assert.Equal(t, "sess_abc", resp.ProviderSessionID)
	assert.Equal(t, "pk_test", resp.ProviderPublicKey)
	assert.Equal(t, 550.0, resp.Amount)
	assert.Equal(t, "WIDGET_OPEN", resp.Status)
	assert.Equal(t, "cart-1", env.checkouts.lastCartID)
}

func TestInitiateCheckout_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
		{"missing customer", checkout.ErrMissingCustomer, http.StatusUnprocessableEntity, "missing_customer"},
		{"payment init failed", payment.ErrPaymentInit, http.StatusBadGateway, "payment_init_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.checkouts.initiateErr = tc.err

			recorder := doRequest(t, env, "POST", "/api/v1/checkout",
				InitiateCheckoutRequestDTO{CustomerName: "Asha", CustomerEmail: "a@b.c"})
			assert.Equal(t, tc.wantStatus, recorder.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
			assert.Equal(t, tc.wantCode, resp.Code)
		})
	}
}

func TestPaymentOutcome_Success(t *testing.T) {
	env := newTestEnv()
	env.checkouts.outcomeResult = &checkout.OutcomeResult{
		Status:  domain.CheckoutStatusCompleted,
		OrderID: "order-1",
	}

	recorder := doRequest(t, env, "POST", "/api/v1/checkout/chk-1/payment",
		PaymentOutcomeRequestDTO{Outcome: "success", ProviderReference: "pay_ref"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp PaymentOutcomeResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "chk-1", resp.CheckoutID)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, checkout.OutcomeSuccess, env.checkouts.lastOutcome)
}

func TestPaymentOutcome_Failure(t *testing.T) {
	env := newTestEnv()
	env.checkouts.outcomeResult = &checkout.OutcomeResult{Status: domain.CheckoutStatusFailed}

	recorder := doRequest(t, env, "POST", "/api/v1/checkout/chk-1/payment",
		PaymentOutcomeRequestDTO{Outcome: "failure", Reason: "card declined"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp PaymentOutcomeResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "FAILED", resp.Status)
	assert.Empty(t, resp.OrderID)
}

func TestPaymentOutcome_InvalidOutcomeRejected(t *testing.T) {
	env := newTestEnv()

	recorder := doRequest(t, env, "POST", "/api/v1/checkout/chk-1/payment",
		PaymentOutcomeRequestDTO{Outcome: "maybe"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "invalid_outcome", resp.Code)
}

func TestPaymentOutcome_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown session", checkout.ErrSessionNotFound, http.StatusNotFound, "checkout_not_found"},
		{"illegal transition", checkout.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
		{"order persist failed", checkout.ErrOrderPersist, http.StatusBadGateway, "order_persist_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.checkouts.outcomeErr = tc.err

			recorder := doRequest(t, env, "POST", "/api/v1/checkout/chk-1/payment",
				PaymentOutcomeRequestDTO{Outcome: "success"})
			assert.Equal(t, tc.wantStatus, recorder.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
			assert.Equal(t, tc.wantCode, resp.Code)
		})
	}
}

func TestGetCheckout_ReturnsSession(t *testing.T) {
	env := newTestEnv()
	env.checkouts.session = &domain.CheckoutSession{
		ID:       "chk-1",
		Status:   domain.CheckoutStatusCompleted,
		Amount:   550,
		Currency: "INR",
		OrderID:  "order-1",
	}

	recorder := doRequest(t, env, "GET", "/api/v1/checkout/chk-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp CheckoutSessionDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "chk-1", resp.CheckoutID)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "order-1", resp.OrderID)
}

func TestGetCheckout_NotFound(t *testing.T) {
	env := newTestEnv()
	env.checkouts.sessionErr = checkout.ErrSessionNotFound

	recorder := doRequest(t, env, "GET", "/api/v1/checkout/chk-404", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
