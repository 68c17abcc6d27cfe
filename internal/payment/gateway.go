package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

// ErrPaymentInit covers every way the gateway can refuse to open a session:
// unreachable service, rejected amount, or an open circuit breaker. The
// checkout aborts and the cart stays intact; the user may retry.
var ErrPaymentInit = errors.New("failed to initialize payment session")

// Gateway opens a hosted payment transaction for a fixed amount and returns
// the opaque session handle the browser widget needs.
type Gateway interface {
	CreateSession(ctx context.Context, amount float64, currency string) (*domain.PaymentSession, error)
}

type HTTPGateway struct {
	client    *http.Client
	baseURL   string
	publicKey string
	breaker   *gobreaker.CircuitBreaker[*domain.PaymentSession]
}

func NewHTTPGateway(baseURL, publicKey string, timeout time.Duration) *HTTPGateway {
	cb := gobreaker.NewCircuitBreaker[*domain.PaymentSession](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPGateway{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		publicKey: publicKey,
		breaker:   cb,
	}
}

type createSessionRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type createSessionResponse struct {
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

func (g *HTTPGateway) CreateSession(ctx context.Context, amount float64, currency string) (*domain.PaymentSession, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %.2f", ErrPaymentInit, amount)
	}

	session, err := g.breaker.Execute(func() (*domain.PaymentSession, error) {
		return g.createSession(ctx, amount, currency)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: gateway circuit open", ErrPaymentInit)
		}
		return nil, err
	}

	return session, nil
}

func (g *HTTPGateway) createSession(ctx context.Context, amount float64, currency string) (*domain.PaymentSession, error) {
	body, err := json.Marshal(createSessionRequest{Amount: amount, Currency: currency})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrPaymentInit, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrPaymentInit, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentInit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrPaymentInit, resp.StatusCode)
	}

	var dto createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPaymentInit, err)
	}
	if dto.SessionID == "" {
		return nil, fmt.Errorf("%w: gateway returned empty session id", ErrPaymentInit)
	}

	return &domain.PaymentSession{
		SessionID:         dto.SessionID,
		ProviderPublicKey: g.publicKey,
		Amount:            dto.Amount,
		Currency:          dto.Currency,
	}, nil
}
