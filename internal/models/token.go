package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken as stored in the database
// Keeps only a one-way hash of the raw token value, never the value itself
type RefreshToken struct {
	ID        uuid.UUID
	UserID    int64
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil while the token is still active
}

// Active reports whether the token may still be exchanged for a new pair.
// Expiry is a read-time predicate, revocation is stored state.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
