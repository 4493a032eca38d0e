// Package auth parses the AUTH command's token value (§4.I, §9 Open
// Question 3). Per spec.md's Non-goals, AUTH is parsed but never enforced:
// a Verifier's result is informational only: the verified subject is
// recorded on the connection registry entry (INFO CONNECTIONS does not render
// it), and it never gates a command or closes a connection.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subject/role payload a verified AUTH token carries.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks AUTH command values against a shared HMAC secret. A zero
// Verifier (no secret configured) rejects every token with an error; since
// AUTH is never enforced, that error only means "unverified".
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier against secret. An empty secret means
// Verify always returns an error.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify attempts to parse and validate value as a signed JWT. It never
// returns an error that should affect connection handling — callers log the
// error at debug level and move on, per the package doc.
func (v *Verifier) Verify(value string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("auth: no verifier secret configured")
	}
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid claims")
	}
	return claims, nil
}

// GenerateTestToken builds a short-lived token for exercising Verify in
// tests, signed with the same secret the Verifier checks against.
func (v *Verifier) GenerateTestToken(subject, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
