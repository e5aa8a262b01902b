package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
)

// Sessions is the session half of SessionStore.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	CreateConfirmation(ctx context.Context, userID string) (string, error)
	ConsumeConfirmation(ctx context.Context, token string) (string, error)
}

// Resolver finds the session a request carries, from the session cookie or
// from an "Authorization: Bearer" access token.
type Resolver struct {
	sessions Sessions
	tokens   *TokenIssuer
}

func NewResolver(sessions Sessions, tokens *TokenIssuer) *Resolver {
	return &Resolver{sessions: sessions, tokens: tokens}
}

// SessionID extracts the session id without looking it up. A malformed or
// expired bearer token is an Auth error.
func (rv *Resolver) SessionID(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		claims, err := rv.tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return "", err
		}
		return claims.SessionID, nil
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", nil
}

// Resolve returns the signed-in user id and the session id. Both are empty
// when the request carries no live session. Store failures are Network
// errors, bad tokens Auth errors.
func (rv *Resolver) Resolve(r *http.Request) (userID, sessionID string, err error) {
	sid, err := rv.SessionID(r)
	if err != nil || sid == "" {
		return "", "", err
	}
	userID, err = rv.sessions.Get(r.Context(), sid)
	if err != nil {
		return "", "", err
	}
	if userID == "" {
		return "", "", nil
	}
	return userID, sid, nil
}

// IsAnonymous reports whether err from Resolve only means "no valid
// credentials" rather than a failing session store.
func IsAnonymous(err error) bool {
	return err == nil || apperr.KindOf(err) == apperr.Auth
}
