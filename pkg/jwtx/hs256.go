package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a session token and returns its claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies session tokens with a shared secret. The CMS
// dashboard has a single issuer and a single audience, so symmetric signing
// keeps the key handling down to one configured value.
type HS256 struct {
	secret []byte
	issuer string
}

func NewHS256(secret, issuer string) *HS256 {
	return &HS256{secret: []byte(secret), issuer: issuer}
}

// Sign turns claims into a signed compact JWT string.
func (h *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

// Verify parses and validates a compact JWT string. Signature, algorithm,
// issuer, and the exp/nbf window are all enforced.
func (h *HS256) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrAlgMismatch
		}
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlgMismatch):
			return Claims{}, ErrAlgMismatch
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		default:
			return Claims{}, ErrMalformed
		}
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
