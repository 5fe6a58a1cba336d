package models

import (
	"time"

	"github.com/google/uuid"
)

// Refresh token persisted for user. It is not rotated on use: valid until expired or revoked.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil if token not revoked
}

func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// ExpiresIn returns lifetime left in whole seconds rounded up, as clients get it in 'expires_in'
func (t IssuedToken) ExpiresIn(now time.Time) int64 {
	left := t.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64((left + time.Second - 1) / time.Second)
}

// Token pair issued by TokenManager on register or login
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
