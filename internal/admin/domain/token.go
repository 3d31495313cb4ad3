package domain

import "time"

// ResetToken is a single-use, time-limited credential granting permission to
// set a new password for one user. The user fields are a snapshot taken at
// issuance so the reset form can greet the user without touching the store.
type ResetToken struct {
	Token     string
	UserID    int
	Username  string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token's lifetime has passed at now.
func (t ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
