package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/campuscanteen/canteen-api/internal/shared"
)

// ClaimsSessionKey is the session value under which identity claims are
// serialized at login time.
const ClaimsSessionKey = "identity_claims"

// Provider resolves the identity for a request.
type Provider interface {
	Resolve(ctx context.Context) (*Identity, error)
}

// SessionProvider reconstructs the identity from session claims.
type SessionProvider struct{}

// NewSessionProvider constructs a SessionProvider.
func NewSessionProvider() *SessionProvider {
	return &SessionProvider{}
}

// Resolve reads the claims stored in the current session. Anonymous
// sessions yield a nil identity without error.
func (p *SessionProvider) Resolve(ctx context.Context) (*Identity, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	raw := sess.Get(ClaimsSessionKey)
	if raw == "" {
		return nil, nil
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// StoreClaims serializes the identity into the session. Called by the auth
// handler after a successful login.
func StoreClaims(sess *shared.Session, id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sess.Set(ClaimsSessionKey, string(data))
	return nil
}

// Middleware resolves the identity once per request and stores it in
// context for downstream handlers and the maintenance gate.
func Middleware(provider Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := provider.Resolve(r.Context())
			if err != nil {
				if logger != nil {
					logger.Warn("resolve identity", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			if id != nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
