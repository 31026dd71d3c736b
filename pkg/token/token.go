// Package token issues and verifies the signed bearer tokens used for both
// access and refresh credentials. The two kinds differ only in TTL.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers bad signature, malformed structure and expiry.
// Callers must not be able to distinguish the sub-cause.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a process-wide HMAC secret.
type Issuer struct {
	secret []byte
}

// NewIssuer panics on an empty secret: a missing signing key is a
// configuration error, not something to surface per request.
func NewIssuer(secret []byte) *Issuer {
	if len(secret) == 0 {
		panic("token: signing secret is not configured")
	}
	return &Issuer{secret: secret}
}

// Issue signs a token for subject expiring ttl from now.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens unique even when two are issued for the same
			// subject within the same second; session rows index the token
			// value uniquely.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the subject user id.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
