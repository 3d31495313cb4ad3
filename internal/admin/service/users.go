package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/internal/admin/tokens"
	"github.com/fernwebstudio/siteadmin/pkg/cryptox"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// UserService owns the user lifecycle. Every mutation goes through the
// store's full-collection rewrite; the store serializes those internally.
type UserService struct {
	Store    store.Store
	Registry *tokens.Registry
}

// CreateUserParams are the fields accepted by Create. Role defaults to
// admin when empty.
type CreateUserParams struct {
	Username string
	Name     string
	Email    string
	Role     string
}

// UpdateUserParams are partial fields: only non-empty values are applied.
// Role is honoured by Edit only.
type UpdateUserParams struct {
	Username string
	Name     string
	Email    string
	Role     string
}

// Create validates and persists a new user. The account starts with a
// random temporary password whose plaintext is hashed and discarded, so the
// only way in is the reset link the caller returns alongside the record.
func (s *UserService) Create(ctx context.Context, p CreateUserParams) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if p.Username == "" || p.Name == "" || p.Email == "" {
		return domain.User{}, ErrMissingFields
	}
	if p.Role == "" {
		p.Role = domain.RoleAdmin
	}
	if !domain.ValidRole(p.Role) {
		return domain.User{}, ErrInvalidRole
	}

	// Precheck for a friendlier error; the store re-checks atomically.
	_, err := s.Store.Users().GetByUsername(ctx, p.Username)
	if err == nil {
		return domain.User{}, ErrUsernameTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	temp, err := cryptox.GeneratePassword()
	if err != nil {
		log.Error("failed to generate temporary password", slog.Any("error", err))
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(temp)
	if err != nil {
		log.Error("failed to hash temporary password", slog.Any("error", err))
		return domain.User{}, err
	}

	user, err := s.Store.Users().Create(ctx, domain.User{
		Username: p.Username,
		Password: hash,
		Role:     p.Role,
		Name:     p.Name,
		Email:    p.Email,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	log.Info("user created",
		slog.Int("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)
	return user, nil
}

// Update applies partial field changes without touching the role.
func (s *UserService) Update(ctx context.Context, userID int, p UpdateUserParams) (domain.User, error) {
	p.Role = ""
	return s.apply(ctx, userID, p)
}

// Edit is Update plus role changes, validated against the known roles.
func (s *UserService) Edit(ctx context.Context, userID int, p UpdateUserParams) (domain.User, error) {
	if p.Role != "" && !domain.ValidRole(p.Role) {
		return domain.User{}, ErrInvalidRole
	}
	return s.apply(ctx, userID, p)
}

func (s *UserService) apply(ctx context.Context, userID int, p UpdateUserParams) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if p.Username != "" {
		user.Username = p.Username
	}
	if p.Name != "" {
		user.Name = p.Name
	}
	if p.Email != "" {
		user.Email = p.Email
	}
	if p.Role != "" {
		user.Role = p.Role
	}

	if err := s.Store.Users().Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.User{}, ErrUsernameTaken
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, ErrUserNotFound
		default:
			return domain.User{}, err
		}
	}

	log.Info("user updated", slog.Int("user_id", user.ID))
	return user, nil
}

// Delete removes the user and cascades to the reset-token registry so a
// stale link cannot resurrect access to the removed account.
func (s *UserService) Delete(ctx context.Context, userID int) error {
	log := slogx.FromContext(ctx)

	if err := s.Store.Users().Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	revoked := s.Registry.DeleteByUser(userID)
	log.Info("user deleted",
		slog.Int("user_id", userID),
		slog.Int("tokens_revoked", revoked),
	)
	return nil
}

// List returns the public projection of every user.
func (s *UserService) List(ctx context.Context) ([]domain.Public, error) {
	users, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
