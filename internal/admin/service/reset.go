package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/internal/admin/tokens"
	"github.com/fernwebstudio/siteadmin/pkg/cryptox"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// DefaultTokenTTL is how long a reset link stays usable.
const DefaultTokenTTL = 6 * time.Hour

// MinPasswordLength is the password policy floor.
const MinPasswordLength = 8

// EmailContent describes the message the mailer collaborator would deliver.
// Delivery itself is outside this service.
type EmailContent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ResetIssue is the result of minting a reset token for a user.
type ResetIssue struct {
	Link      string       `json:"resetLink"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Email     EmailContent `json:"emailContent"`
}

// ResetGreeting is the snapshot the reset form shows before the user picks
// a new password.
type ResetGreeting struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ResetService owns the reset-token lifecycle: issuance, verification, and
// the password reset itself.
type ResetService struct {
	Store    store.Store
	Registry *tokens.Registry

	// BaseURL is the dashboard origin the reset link points at.
	BaseURL string

	// TokenTTL defaults to DefaultTokenTTL when zero.
	TokenTTL time.Duration
}

// Issue mints a fresh reset token for user and registers it. Outstanding
// tokens for the same user stay valid; every call adds one more.
func (s *ResetService) Issue(ctx context.Context, user domain.User) (ResetIssue, error) {
	log := slogx.FromContext(ctx)

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate reset token", slog.Any("error", err))
		return ResetIssue{}, err
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	expiresAt := time.Now().Add(ttl)

	s.Registry.Insert(domain.ResetToken{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	})

	link := s.BaseURL + "/reset-password?token=" + url.QueryEscape(token)

	log.Debug("reset token issued",
		slog.Int("user_id", user.ID),
		slog.Time("expires_at", expiresAt),
	)

	return ResetIssue{
		Link:      link,
		ExpiresAt: expiresAt,
		Email: EmailContent{
			To:      user.Email,
			Subject: "Set your dashboard password",
			Body: fmt.Sprintf(
				"Hi %s,\n\nFollow this link to set your password: %s\n\nThe link expires in %s.",
				user.Name, link, ttl,
			),
		},
	}, nil
}

// SendResetLink issues a new token for the user with the given id.
func (s *ResetService) SendResetLink(ctx context.Context, userID int) (ResetIssue, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ResetIssue{}, ErrUserNotFound
		}
		return ResetIssue{}, err
	}
	return s.Issue(ctx, user)
}

// VerifyToken returns the greeting snapshot for a live token without
// consuming it. Expired tokens are evicted and reported distinctly from
// unknown ones.
func (s *ResetService) VerifyToken(ctx context.Context, token string) (ResetGreeting, error) {
	t, err := s.Registry.Resolve(token)
	if err != nil {
		return ResetGreeting{}, mapTokenErr(err)
	}
	return ResetGreeting{Username: t.Username, Email: t.Email}, nil
}

// ResetPassword sets a new password for the token's user. The token is
// consumed up front so two racing attempts cannot both pass the lookup;
// if anything after consumption fails, the token is re-inserted and the
// attempt can be retried. Policy checks run before any token lookup so a
// rejected attempt leaves the token usable.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	log := slogx.FromContext(ctx)

	if token == "" || newPassword == "" || confirmPassword == "" {
		return ErrMissingFields
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	t, err := s.Registry.Consume(token)
	if err != nil {
		return mapTokenErr(err)
	}

	user, err := s.Store.Users().GetByID(ctx, t.UserID)
	if err != nil {
		s.Registry.Insert(t)
		if errors.Is(err, store.ErrNotFound) {
			// The user was deleted after the token was issued.
			return ErrUserNotFound
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		s.Registry.Insert(t)
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	user.Password = hash
	if err := s.Store.Users().Update(ctx, user); err != nil {
		s.Registry.Insert(t)
		return err
	}

	log.Info("password reset completed", slog.Int("user_id", user.ID))
	return nil
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, tokens.ErrNotFound):
		return ErrTokenNotFound
	default:
		return err
	}
}
