package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	// Client session errors
	ErrNoRefreshToken  = errors.New("no refresh token stored")
	ErrRefreshRejected = errors.New("token refresh rejected by server")
	ErrLoginRequired   = errors.New("login required")

	ErrInvalidYouTubeURL = errors.New("not a valid YouTube URL")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)
