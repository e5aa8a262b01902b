package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/auth"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/authsession"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/routeguard"
)

// SessionResolver is satisfied by *auth.Resolver.
type SessionResolver interface {
	Resolve(r *http.Request) (userID, sessionID string, err error)
}

// UserLookup loads the account behind a session.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type ctxKey struct{}

// Who is the request identity. It implements listing.Identity.
type Who struct {
	Snapshot  authsession.Snapshot
	SessionID string
}

func (w Who) CurrentUser() (*models.User, bool) {
	return w.Snapshot.User, w.Snapshot.State == authsession.Authenticated && w.Snapshot.User != nil
}

// WithWho stores w in ctx.
func WithWho(ctx context.Context, w Who) context.Context {
	return context.WithValue(ctx, ctxKey{}, w)
}

// WhoFrom returns the request identity. Requests that never passed
// Authenticate are anonymous.
func WhoFrom(ctx context.Context) Who {
	if w, ok := ctx.Value(ctxKey{}).(Who); ok {
		return w
	}
	return Who{Snapshot: authsession.Snapshot{State: authsession.Anonymous}}
}

// Authenticate resolves the session cookie or bearer token into a Who. It
// never rejects: a session store outage leaves the identity Initializing so
// Guard can answer with the loading outcome.
func Authenticate(sessions SessionResolver, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who := Who{Snapshot: authsession.Snapshot{State: authsession.Anonymous}}

			userID, sid, err := sessions.Resolve(r)
			switch {
			case !auth.IsAnonymous(err):
				log.Warn("session resolve failed", zap.String("path", r.URL.Path), zap.Error(err))
				who.Snapshot.State = authsession.Initializing
			case userID != "":
				user, err := users.GetUserByID(r.Context(), userID)
				switch {
				case err == nil:
					who = Who{Snapshot: authsession.Snapshot{State: authsession.Authenticated, User: user}, SessionID: sid}
				case apperr.KindOf(err) == apperr.NotFound:
					// account deleted behind a live session
				default:
					log.Warn("session user lookup failed", zap.String("user_id", userID), zap.Error(err))
					who.Snapshot.State = authsession.Initializing
				}
			}

			next.ServeHTTP(w, r.WithContext(WithWho(r.Context(), who)))
		})
	}
}

// Guard applies the route guard to the identity placed by Authenticate.
// Loading answers 503 with Retry-After; Redirect answers 401 naming the auth
// route.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := routeguard.Decide(WhoFrom(r.Context()).Snapshot)
		switch d.Outcome {
		case routeguard.Loading:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"session is still loading","kind":"network"}`))
			return
		case routeguard.Redirect:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required","kind":"auth","redirect":"` + d.Target + `"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth is Authenticate followed by Guard.
func RequireAuth(sessions SessionResolver, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	authenticate := Authenticate(sessions, users, log)
	return func(next http.Handler) http.Handler {
		return authenticate(Guard(next))
	}
}
