package auth

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrAccountBanned         = errors.New("account banned")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrExpiredRefreshToken   = errors.New("expired refresh token")
	ErrRoleNotHeld           = errors.New("role not held")
	ErrInvalidRole           = errors.New("invalid role")
)
