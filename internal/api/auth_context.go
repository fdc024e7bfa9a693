package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// ownerIDKey is the context key for the authenticated owner ID.
const ownerIDKey ctxKey = "ownerID"

// GetOwnerID returns the authenticated owner ID from context.
// Returns 401 error if the request is not authenticated.
func GetOwnerID(ctx context.Context) (int64, error) {
	ownerID, ok := ctx.Value(ownerIDKey).(int64)
	if !ok || ownerID <= 0 {
		return 0, huma.Error401Unauthorized("Authentication required")
	}
	return ownerID, nil
}

// setOwnerID stores the owner ID in context.
func setOwnerID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the owner ID in context.
// If no token is present or invalid, continues without an owner in context.
// Handlers use GetOwnerID to check authentication.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || tokens == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setOwnerID(r.Context(), claims.OwnerID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
