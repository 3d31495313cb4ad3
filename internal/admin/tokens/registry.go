// Package tokens holds the in-memory password-reset token registry. The
// registry is process-wide state with a restart-lossy lifecycle: an
// outstanding reset link stops working when the service restarts, and a new
// one has to be issued.
package tokens

import (
	"errors"
	"sync"
	"time"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
)

var (
	// ErrNotFound reports a token absent from the registry.
	ErrNotFound = errors.New("tokens: not found")

	// ErrExpired reports a token that existed but passed its expiry. Kept
	// distinct from ErrNotFound so the UI can prompt for a fresh link
	// instead of claiming the input was invalid.
	ErrExpired = errors.New("tokens: expired")
)

// Registry maps opaque reset tokens to their issuance snapshots. All methods
// are safe for concurrent use; the hourly sweep and a consuming request can
// race on the same token.
type Registry struct {
	mu     sync.Mutex
	tokens map[string]domain.ResetToken

	now func() time.Time // stubbed in tests
}

func NewRegistry() *Registry {
	return &Registry{
		tokens: make(map[string]domain.ResetToken),
		now:    time.Now,
	}
}

// Insert registers a token. Earlier tokens for the same user stay valid;
// issuing a new link never revokes outstanding ones.
func (r *Registry) Insert(t domain.ResetToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Token] = t
}

// Resolve returns the snapshot for token without consuming it. An expired
// token is deleted eagerly and reported as ErrExpired; the sweep is only a
// backstop, every read enforces expiry itself.
func (r *Registry) Resolve(token string) (domain.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return domain.ResetToken{}, ErrNotFound
	}
	if t.Expired(r.now()) {
		delete(r.tokens, token)
		return domain.ResetToken{}, ErrExpired
	}
	return t, nil
}

// Consume resolves and deletes the token in one step, making it single-use.
func (r *Registry) Consume(token string) (domain.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return domain.ResetToken{}, ErrNotFound
	}
	delete(r.tokens, token)
	if t.Expired(r.now()) {
		return domain.ResetToken{}, ErrExpired
	}
	return t, nil
}

// DeleteByUser removes every token issued for userID. Called when the user
// is deleted so a stale link cannot resurrect access to a removed account.
func (r *Registry) DeleteByUser(userID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, token)
			removed++
		}
	}
	return removed
}

// DeleteExpired evicts every token past its expiry and reports how many
// were removed. The background sweeper calls this periodically.
func (r *Registry) DeleteExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for token, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of outstanding tokens.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
