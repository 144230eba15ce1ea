package domain

import (
	"errors"
	"time"
)

var ErrRefreshTokenNotFound = errors.New("refresh token is not in database")
var ErrRefreshTokenExpired = errors.New("refresh token has expired")

// RefreshToken is an opaque, longer-lived credential bound one-to-one to a user.
// A user has at most one live refresh token: a new signin replaces the old row.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the token is expired at the given instant.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
