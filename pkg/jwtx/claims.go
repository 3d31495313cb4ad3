package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime of a dashboard session token.
const DefaultSessionTTL = 8 * time.Hour

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Claims are the dashboard session claims. The subject is the user id; the
// role is enforced downstream by the management handler, which trusts it as
// already verified.
type Claims struct {
	jwt.RegisteredClaims

	// Username of the authenticated user
	Username string `json:"username,omitempty"`

	// Role is the dashboard role ("admin" or "superadmin")
	Role string `json:"role,omitempty"`
}

// NewSessionClaims builds minimally-correct session claims. A non-positive
// ttl falls back to DefaultSessionTTL.
func NewSessionClaims(
	subject, username, role string,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Role:     role,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
