package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: no bearer token")

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the identity value.
type contextKey string

const telegramIDKey contextKey = "telegramID"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the Authorization header ("Bearer <token>"),
// validates it, and stores the Telegram user id in the request context. A
// missing or invalid token stops the chain with 401 — handlers behind this
// middleware can assume a verified identity.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			telegramID, err := extractTelegramID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), telegramIDKey, telegramID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TelegramIDFromContext retrieves the authenticated Telegram user id.
// Returns (0, false) for an anonymous request — which behind RequireAuth
// indicates a programming error, not a client condition.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(telegramIDKey).(int64)
	return id, ok && id != 0
}

func extractTelegramID(r *http.Request, tokens *TokenService) (int64, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return 0, errNoToken
	}

	return tokens.Validate(tokenStr)
}
