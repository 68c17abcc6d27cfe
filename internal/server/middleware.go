package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const cartTokenHeader = "X-Cart-Token"
const cartTokenCookie = "cart_token"

type contextKey string

const cartTokenKey contextKey = "cart_token"

// CartTokenMiddleware resolves the opaque cart identity for the request. The
// token comes from the X-Cart-Token header if present, then the cart_token
// cookie; a first-time visitor gets a freshly minted UUID and the cookie set.
// Carts work the same with or without a signed-in user.
func CartTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(cartTokenHeader)
		if token == "" {
			if cookie, err := r.Cookie(cartTokenCookie); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartTokenCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   60 * 60 * 24 * 90,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(cartTokenHeader, token)

		ctx := context.WithValue(r.Context(), cartTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCartToken(ctx context.Context) string {
	if token, ok := ctx.Value(cartTokenKey).(string); ok {
		return token
	}
	return ""
}
