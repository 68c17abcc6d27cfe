package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)

		var req createSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 549.0, req.Amount)
		assert.Equal(t, "INR", req.Currency)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(createSessionResponse{
			SessionID: "sess_abc123",
			Amount:    req.Amount,
			Currency:  req.Currency,
		})
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "pk_test_key", time.Second)

	session, err := gateway.CreateSession(context.Background(), 549, "INR")
	require.NoError(t, err)
	assert.Equal(t, "sess_abc123", session.SessionID)
	assert.Equal(t, "pk_test_key", session.ProviderPublicKey)
	assert.Equal(t, 549.0, session.Amount)
	assert.Equal(t, "INR", session.Currency)
}

func TestCreateSession_RejectsNonPositiveAmount(t *testing.T) {
	gateway := NewHTTPGateway("http://unused", "pk", time.Second)

	_, err := gateway.CreateSession(context.Background(), 0, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)

	_, err = gateway.CreateSession(context.Background(), -10, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)
}

func TestCreateSession_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "pk", time.Second)

	_, err := gateway.CreateSession(context.Background(), 100, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)
}

func TestCreateSession_Unreachable(t *testing.T) {
	gateway := NewHTTPGateway("http://127.0.0.1:1", "pk", 100*time.Millisecond)

	_, err := gateway.CreateSession(context.Background(), 100, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)
}

func TestCreateSession_EmptySessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id": "", "amount": 100, "currency": "INR"}`))
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "pk", time.Second)

	_, err := gateway.CreateSession(context.Background(), 100, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)
}

func TestCreateSession_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "pk", time.Second)

	for i := 0; i < 5; i++ {
		_, err := gateway.CreateSession(context.Background(), 100, "INR")
		assert.ErrorIs(t, err, ErrPaymentInit)
	}
	assert.Equal(t, 5, calls)

	// Breaker is open now: the gateway is no longer called.
	_, err := gateway.CreateSession(context.Background(), 100, "INR")
	assert.ErrorIs(t, err, ErrPaymentInit)
	assert.Equal(t, 5, calls)
}
