package store

import (
	"context"
	"errors"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrCorrupt reports a store file that could not be decrypted or
	// parsed. Callers must treat this as fatal for the operation; silently
	// proceeding with an empty collection would look like "no users exist".
	ErrCorrupt = errors.New("store: corrupt user store")
)

// Store is the root data access interface over the encrypted user store.
// The cryptofile driver implements it; tests can substitute their own.
type Store interface {
	Users() Users

	// Ping verifies the backing file is readable and decryptable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Users is the user collection. Every mutation rewrites the full collection
// atomically; the driver serializes read-modify-write cycles so concurrent
// mutations can neither lose writes nor duplicate ids.
type Users interface {
	// List returns all records. A missing backing file yields an empty
	// list, not an error, to support first run.
	List(ctx context.Context) ([]domain.User, error)

	// GetByID returns a user by id.
	GetByID(ctx context.Context, id int) (domain.User, error)

	// GetByUsername returns a user by exact (case-sensitive) username.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// Create assigns the next id (max existing + 1, starting at 1) and
	// appends the record. Returns ErrAlreadyExists on a duplicate username.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Update replaces the record with matching id. Returns
	// ErrAlreadyExists if the new username belongs to another record.
	Update(ctx context.Context, u domain.User) error

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id int) error
}
