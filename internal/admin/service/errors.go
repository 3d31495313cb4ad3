package service

import "errors"

var (
	ErrMissingFields    = errors.New("username, name and email are required")
	ErrInvalidRole      = errors.New("role must be admin or superadmin")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrUserNotFound     = errors.New("user not found")
	ErrTokenNotFound    = errors.New("reset token not found")
	ErrTokenExpired     = errors.New("reset token expired")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)
