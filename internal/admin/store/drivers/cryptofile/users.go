package cryptofile

import (
	"context"
	"fmt"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
)

type usersRepo struct {
	store *Store
}

var _ store.Users = (*usersRepo)(nil)

func (r *usersRepo) List(ctx context.Context) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.load()
}

func (r *usersRepo) GetByID(ctx context.Context, id int) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.load()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.load()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

// Create assigns the next id and appends the record in one locked cycle, so
// concurrent creates can neither share an id nor overwrite each other.
func (r *usersRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.load()
	if err != nil {
		return domain.User{}, err
	}

	maxID := 0
	for _, existing := range users {
		if existing.Username == u.Username {
			return domain.User{}, fmt.Errorf("%w: username %q", store.ErrAlreadyExists, u.Username)
		}
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	u.ID = maxID + 1
	users = append(users, u)
	if err := r.store.save(users); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) Update(ctx context.Context, u domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.load()
	if err != nil {
		return err
	}

	// Resolve the target by id before any uniqueness check; a vanished
	// record is not found even when the requested username is taken.
	idx := -1
	for i, existing := range users {
		if existing.ID == u.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}

	for i, existing := range users {
		if i == idx {
			continue
		}
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username %q", store.ErrAlreadyExists, u.Username)
		}
	}

	users[idx] = u
	return r.store.save(users)
}

func (r *usersRepo) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.load()
	if err != nil {
		return err
	}

	kept := users[:0]
	found := false
	for _, u := range users {
		if u.ID == id {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return store.ErrNotFound
	}

	return r.store.save(kept)
}
