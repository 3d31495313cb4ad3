// Package cryptofile persists the full user collection as a single
// encrypted blob file. Reads transparently handle stores written before
// encryption was introduced (plaintext JSON arrays); every write produces
// the encrypted format, so a legacy store is upgraded by its first mutation.
package cryptofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/pkg/cryptox"
)

// Store implements store.Store over one backing file. A single mutex
// serializes every read-modify-write cycle: the load-mutate-rewrite design
// would otherwise let two concurrent creates read the same max id and have
// the second writer discard the first one's append.
type Store struct {
	mu     sync.Mutex
	path   string
	cipher *cryptox.Cipher
	users  *usersRepo
}

var _ store.Store = (*Store)(nil)

// NewStore opens (or prepares to create) the user store at path. The file
// itself is created lazily on the first write so first run works against an
// empty directory.
func NewStore(path string, cipher *cryptox.Cipher) *Store {
	s := &Store{path: path, cipher: cipher}
	s.users = &usersRepo{store: s}
	return s
}

func (s *Store) Users() store.Users { return s.users }

// Ping verifies the store file is absent (first run) or decryptable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

func (s *Store) Close() error { return nil }

// load reads and decodes the full collection. Callers must hold s.mu.
func (s *Store) load() ([]domain.User, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cryptofile: read %s: %w", s.path, err)
	}

	content := string(raw)
	if cryptox.IsEncrypted(content) {
		content, err = s.cipher.Decrypt(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
		}
	}

	var users []domain.User
	if err := json.Unmarshal([]byte(content), &users); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	return users, nil
}

// save encrypts and rewrites the full collection. The blob goes to a temp
// file first and is renamed into place so a concurrent reader never sees a
// partial file. Callers must hold s.mu.
func (s *Store) save(users []domain.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("cryptofile: marshal users: %w", err)
	}

	blob, err := s.cipher.Encrypt(string(raw))
	if err != nil {
		return fmt.Errorf("cryptofile: encrypt users: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cryptofile: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cryptofile: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cryptofile: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cryptofile: chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cryptofile: replace store file: %w", err)
	}
	return nil
}
