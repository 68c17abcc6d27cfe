package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/checkout"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/payment"
)

// CheckoutService is the slice of the checkout package the HTTP layer uses.
type CheckoutService interface {
	Initiate(ctx context.Context, cartID string, req checkout.InitiateRequest) (*checkout.InitiateResult, error)
	HandleOutcome(ctx context.Context, checkoutID string, outcome checkout.Outcome, providerRef, reason string) (*checkout.OutcomeResult, error)
	GetSession(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error)
}

type CheckoutHandler struct {
	checkouts CheckoutService
	metrics   *Metrics
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts CheckoutService, metrics *Metrics, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		metrics:   metrics,
		timeout:   timeout,
	}
}

type InitiateCheckoutRequestDTO struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	UserID        string `json:"user_id,omitempty"`
}

type CheckoutResponseDTO struct {
	CheckoutID        string  `json:"checkout_id"`
	ProviderSessionID string  `json:"provider_session_id"`
	ProviderPublicKey string  `json:"provider_public_key"`
	Subtotal          float64 `json:"subtotal"`
	ShippingFee       float64 `json:"shipping_fee"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
}

type PaymentOutcomeRequestDTO struct {
	Outcome           string `json:"outcome"`
	ProviderReference string `json:"provider_reference,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type PaymentOutcomeResponseDTO struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	OrderID    string `json:"order_id,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	var req InitiateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.checkouts.Initiate(ctx, cartID, checkout.InitiateRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		UserID:        req.UserID,
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	h.metrics.CheckoutInitiated.Inc()

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		CheckoutID:        result.CheckoutID,
		ProviderSessionID: result.ProviderSessionID,
		ProviderPublicKey: result.ProviderPublicKey,
		Subtotal:          result.Pricing.Subtotal,
		ShippingFee:       result.Pricing.ShippingCost,
		Amount:            result.Pricing.Total,
		Currency:          result.Currency,
		Status:            result.Status.String(),
	})
}

// POST /api/v1/checkout/{checkoutID}/payment
func (h *CheckoutHandler) PaymentOutcome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checkoutID := chi.URLParam(r, "checkoutID")
	if checkoutID == "" {
		respondError(w, http.StatusBadRequest, "missing_checkout_id", "checkoutID is required")
		return
	}

	var req PaymentOutcomeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	outcome := checkout.Outcome(req.Outcome)
	switch outcome {
	case checkout.OutcomeSuccess, checkout.OutcomeFailure, checkout.OutcomeDismissed:
	default:
		respondError(w, http.StatusBadRequest, "invalid_outcome",
			"outcome must be one of: success, failure, dismissed")
		return
	}

	result, err := h.checkouts.HandleOutcome(ctx, checkoutID, outcome, req.ProviderReference, req.Reason)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderPersist) {
			h.metrics.PaymentOutcomes.WithLabelValues(string(outcome)).Inc()
			h.metrics.OrderPersistFailure.Inc()
		}
		handleCheckoutError(w, err)
		return
	}

	h.metrics.PaymentOutcomes.WithLabelValues(string(outcome)).Inc()
	if result.Status == domain.CheckoutStatusCompleted {
		h.metrics.OrdersCommitted.Inc()
	}

	respondJSON(w, http.StatusOK, PaymentOutcomeResponseDTO{
		CheckoutID: checkoutID,
		Status:     result.Status.String(),
		OrderID:    result.OrderID,
	})
}

type CheckoutSessionDTO struct {
	CheckoutID    string  `json:"checkout_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	OrderID       string  `json:"order_id,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

// GET /api/v1/checkout/{checkoutID}
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checkoutID := chi.URLParam(r, "checkoutID")
	if checkoutID == "" {
		respondError(w, http.StatusBadRequest, "missing_checkout_id", "checkoutID is required")
		return
	}

	session, err := h.checkouts.GetSession(ctx, checkoutID)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSessionDTO{
		CheckoutID:    session.ID,
		Status:        session.Status.String(),
		Amount:        session.Amount,
		Currency:      session.Currency,
		OrderID:       session.OrderID,
		FailureReason: session.FailureReason,
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrMissingCustomer):
		respondError(w, http.StatusUnprocessableEntity, "missing_customer",
			"customer_name and customer_email are required")
	case errors.Is(err, payment.ErrPaymentInit):
		respondError(w, http.StatusBadGateway, "payment_init_failed",
			"could not start a payment session, please try again")
	case errors.Is(err, checkout.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "checkout_not_found", "checkout session does not exist")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition",
			"checkout session does not accept this outcome")
	case errors.Is(err, checkout.ErrOrderPersist):
		respondError(w, http.StatusBadGateway, "order_persist_failed",
			"payment succeeded but the order could not be saved, please contact support")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
