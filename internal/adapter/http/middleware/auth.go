package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/auth"
)

type contextKey string

const clientContextKey contextKey = "client"

// Client is the authenticated caller of a request.
type Client struct {
	Name string
	Role domain.Role
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores the caller in the
// request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="switchledger"`)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, domain.ErrExpiredToken) {
					code = "token_expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="switchledger", error="invalid_token"`)
				writeJSONError(w, http.StatusUnauthorized, code)
				return
			}

			client := &Client{Name: claims.Subject, Role: claims.Role}
			ctx := context.WithValue(r.Context(), clientContextKey, client)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("client", client.Name)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role does not grant min.
func RequireRole(min domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := ClientFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !client.Role.Allows(min) {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientFromContext returns the authenticated caller, if any.
func ClientFromContext(ctx context.Context) (*Client, bool) {
	client, ok := ctx.Value(clientContextKey).(*Client)
	return client, ok
}
