package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/service"
	"github.com/fernwebstudio/siteadmin/pkg/httpx"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// ManagementHandler dispatches the user-management protocol by action name.
// Privileged actions require a verified superadmin session; the reset
// actions are public because the emailed token is the credential.
type ManagementHandler struct {
	Users *service.UserService
	Reset *service.ResetService
}

type managementRequest struct {
	Action string `json:"action"`

	// User fields
	UserID   int    `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`

	// Reset fields
	Token           string `json:"token,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

func (h *ManagementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req managementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "create-user":
		h.requireSuperadmin(w, r, func() { h.handleCreate(w, r, req) })
	case "update-user":
		h.requireSuperadmin(w, r, func() { h.handleUpdate(w, r, req, false) })
	case "edit-user":
		h.requireSuperadmin(w, r, func() { h.handleUpdate(w, r, req, true) })
	case "delete-user":
		h.requireSuperadmin(w, r, func() { h.handleDelete(w, r, req) })
	case "send-reset-link":
		h.requireSuperadmin(w, r, func() { h.handleSendResetLink(w, r, req) })
	case "verify-reset-token":
		h.handleVerifyToken(w, r, req)
	case "reset-password":
		h.handleResetPassword(w, r, req)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "unknown action")
	}
}

// requireSuperadmin rejects the request unless the session role is exactly
// superadmin. Admins can sign in to the dashboard but may not manage users.
func (h *ManagementHandler) requireSuperadmin(w http.ResponseWriter, r *http.Request, next func()) {
	ctx := r.Context()

	role := httpx.RoleFromCtx(ctx)
	if role == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if role != domain.RoleSuperadmin {
		slogx.FromContext(ctx).Warn("management action denied",
			"actor_id", httpx.UserIDFromCtx(ctx),
			"actor", httpx.UsernameFromCtx(ctx),
			"role", role,
		)
		httpx.WriteError(w, http.StatusForbidden, "superadmin role required")
		return
	}

	slogx.FromContext(ctx).Debug("management action authorized",
		"actor_id", httpx.UserIDFromCtx(ctx),
		"actor", httpx.UsernameFromCtx(ctx),
	)
	next()
}

func (h *ManagementHandler) handleCreate(w http.ResponseWriter, r *http.Request, req managementRequest) {
	ctx := r.Context()

	user, err := h.Users.Create(ctx, service.CreateUserParams{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	issue, err := h.Reset.Issue(ctx, user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":         user.Public(),
		"resetLink":    issue.Link,
		"expiresAt":    issue.ExpiresAt,
		"emailContent": issue.Email,
	})
}

func (h *ManagementHandler) handleUpdate(w http.ResponseWriter, r *http.Request, req managementRequest, allowRole bool) {
	params := service.UpdateUserParams{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	}

	var (
		user domain.User
		err  error
	)
	if allowRole {
		user, err = h.Users.Edit(r.Context(), req.UserID, params)
	} else {
		user, err = h.Users.Update(r.Context(), req.UserID, params)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (h *ManagementHandler) handleDelete(w http.ResponseWriter, r *http.Request, req managementRequest) {
	if err := h.Users.Delete(r.Context(), req.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *ManagementHandler) handleSendResetLink(w http.ResponseWriter, r *http.Request, req managementRequest) {
	issue, err := h.Reset.SendResetLink(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"resetLink":    issue.Link,
		"expiresAt":    issue.ExpiresAt,
		"emailContent": issue.Email,
	})
}

func (h *ManagementHandler) handleVerifyToken(w http.ResponseWriter, r *http.Request, req managementRequest) {
	greeting, err := h.Reset.VerifyToken(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, greeting)
}

func (h *ManagementHandler) handleResetPassword(w http.ResponseWriter, r *http.Request, req managementRequest) {
	err := h.Reset.ResetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

// writeServiceError maps service errors onto the wire. Expected conditions
// come back verbatim as 4xx; anything else is logged server-side and
// surfaced as an opaque 500 so store corruption details never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordTooShort):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTokenNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusGone, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("user management action failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
