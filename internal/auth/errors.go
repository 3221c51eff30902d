package auth

import "errors"

var (
	ErrConflict              = errors.New("username or email already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid refresh token")
	ErrInvalidOrExpiredToken = errors.New("token is invalid or expired")
	ErrUserNotFound          = errors.New("user does not exist")
	ErrAlreadyVerified       = errors.New("email is already verified")
)
