package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// PrincipalContextKey is the context key for the authenticated caller
	PrincipalContextKey ContextKey = "principal"
)

// Principal is the authenticated caller.
type Principal struct {
	Username string
	Role     domain.Role
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// SessionValidator confirms a verified token still belongs to the live
// account it was issued for.
type SessionValidator interface {
	ValidateSession(ctx context.Context, username string, generation int64) error
}

// Authenticator resolves bearer tokens into a Principal.
type Authenticator struct {
	verifier TokenVerifier
	sessions SessionValidator
	metrics  *metrics.Metrics
}

// NewAuthenticator creates an Authenticator. m may be nil.
func NewAuthenticator(verifier TokenVerifier, m *metrics.Metrics) *Authenticator {
	return &Authenticator{verifier: verifier, metrics: m}
}

// WithSessions makes Require reject tokens whose account generation no
// longer matches.
func (a *Authenticator) WithSessions(sessions SessionValidator) *Authenticator {
	a.sessions = sessions
	return a
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.fail(w, "missing_header", "missing authorization header")
			return
		}

		// Parse Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			a.fail(w, "bad_format", "invalid authorization header format")
			return
		}

		claims, err := a.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, domain.ErrExpiredToken) {
				a.fail(w, "expired", "token has expired")
				return
			}
			a.fail(w, "invalid", "invalid token")
			return
		}

		if a.sessions != nil {
			if err := a.sessions.ValidateSession(r.Context(), claims.Username, claims.Generation); err != nil {
				a.fail(w, "revoked", "token no longer valid")
				return
			}
		}

		ctx := WithPrincipal(r.Context(), &Principal{Username: claims.Username, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) fail(w http.ResponseWriter, reason, message string) {
	if a.metrics != nil {
		a.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
	writeError(w, http.StatusUnauthorized, message)
}

// RequireRole creates a middleware that checks for a specific role
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if role == domain.RoleAdmin && !p.Role.CanViewReports() {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext extracts the authenticated caller from context
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(*Principal)
	return p, ok && p != nil
}
