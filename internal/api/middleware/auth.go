package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/duoplay/internal/api/apierr"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// TokenQueryParam carries the token for clients that cannot set headers,
// which includes browser websockets
const TokenQueryParam = "token"

// Auth creates authentication middleware. Requests without a valid token
// are answered with 401 before reaching next.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken reads the bearer token from the Authorization header,
// falling back to the token query parameter
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.URL.Query().Get(TokenQueryParam)
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) model.Identity {
	identity, ok := GetIdentity(ctx)
	if !ok {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
