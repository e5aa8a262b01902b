package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
)

const (
	SessionTTL      = 24 * time.Hour
	ConfirmationTTL = 48 * time.Hour
	SessionCookie   = "session_id"
)

// SessionStore wraps Redis for session management and pending email
// confirmations.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, "session:"+sid, userID, SessionTTL).Err(); err != nil {
		return "", apperr.Wrap(apperr.Network, "SessionStore.Create", err)
	}
	return sid, nil
}

// Get returns the userID for a session, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Network, "SessionStore.Get", err)
	}
	return val, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, "session:"+sessionID).Err(); err != nil {
		return apperr.Wrap(apperr.Network, "SessionStore.Delete", err)
	}
	return nil
}

// CreateConfirmation issues a one-time email confirmation token for userID.
func (s *SessionStore) CreateConfirmation(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	if err := s.rdb.Set(ctx, "confirm:"+token, userID, ConfirmationTTL).Err(); err != nil {
		return "", apperr.Wrap(apperr.Network, "SessionStore.CreateConfirmation", err)
	}
	return token, nil
}

// ConsumeConfirmation returns the user a token was issued for and deletes
// the token. Unknown or expired tokens are NotFound.
func (s *SessionStore) ConsumeConfirmation(ctx context.Context, token string) (string, error) {
	val, err := s.rdb.GetDel(ctx, "confirm:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperr.New(apperr.NotFound, "SessionStore.ConsumeConfirmation", "confirmation link is invalid or expired")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Network, "SessionStore.ConsumeConfirmation", err)
	}
	return val, nil
}
