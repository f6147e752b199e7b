// Package downloadtoken issues and checks the short-lived bearer tokens that
// release unsanitized site code.
package downloadtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer  = "site-generator"
	Purpose = "site_download"
)

// ErrInvalid covers every rejection: bad signature, expiry, wrong purpose or
// a conversation mismatch. Callers must not tell them apart in responses.
var ErrInvalid = errors.New("download token invalid or expired")

// Claims is what a valid token grants.
type Claims struct {
	ConversationID string
	ExpiresAt      time.Time
}

type tokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return NewManagerWithClock(secret, ttl, time.Now)
}

func NewManagerWithClock(secret string, ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token bound to conversationID. The returned expiry is
// second-aligned, matching the exp claim exactly.
func (m *Manager) Issue(conversationID string) (string, time.Time, error) {
	if conversationID == "" {
		return "", time.Time{}, fmt.Errorf("conversation id is required")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Purpose: Purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   conversationID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign download token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, expiry (valid strictly before exp) and purpose.
// When conversationID is non-empty the token must be bound to it.
func (m *Manager) Validate(tokenString, conversationID string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalid
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid || claims.Purpose != Purpose || claims.Subject == "" {
		return nil, ErrInvalid
	}
	if conversationID != "" && claims.Subject != conversationID {
		return nil, fmt.Errorf("%w: token bound to another conversation", ErrInvalid)
	}

	return &Claims{
		ConversationID: claims.Subject,
		ExpiresAt:      claims.ExpiresAt.Time,
	}, nil
}
