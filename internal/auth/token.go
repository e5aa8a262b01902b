package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
)

// Claims of an access token. The session id ties the token to the Redis
// session, so signing out revokes the token too.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns nil when secret is empty; bearer tokens are then
// disabled and only the session cookie authenticates.
func NewTokenIssuer(secret string) *TokenIssuer {
	if secret == "" {
		return nil
	}
	return &TokenIssuer{secret: []byte(secret), ttl: SessionTTL, now: time.Now}
}

func (t *TokenIssuer) Issue(userID, sessionID string) (string, error) {
	if t == nil {
		return "", nil
	}
	now := t.now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "TokenIssuer.Issue", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	if t == nil {
		return nil, apperr.New(apperr.Auth, "TokenIssuer.Parse", "bearer tokens are disabled")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &apperr.Error{Kind: apperr.Auth, Op: "TokenIssuer.Parse", Message: "session expired", Err: err}
		}
		return nil, &apperr.Error{Kind: apperr.Auth, Op: "TokenIssuer.Parse", Message: "invalid token", Err: err}
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, apperr.New(apperr.Auth, "TokenIssuer.Parse", "invalid token")
	}
	return claims, nil
}
