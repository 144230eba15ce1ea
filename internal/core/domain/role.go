package domain

import (
	"errors"
	"strings"
)

// Role is a canonical capability tag drawn from a fixed, closed enumeration.
type Role string

const (
	RoleUser      Role = "ROLE_USER"
	RoleModerator Role = "ROLE_MODERATOR"
	RoleAdmin     Role = "ROLE_ADMIN"
)

var ErrInvalidRole = errors.New("invalid role")
var ErrRoleNotFound = errors.New("role not found")

// RoleRecord is a persisted role catalog row.
type RoleRecord struct {
	ID   int64
	Name Role
}

// RoleFromString maps a requested role name to its canonical tag,
// case-insensitively. "mod" is accepted as the short form of moderator.
func RoleFromString(name string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "user":
		return RoleUser, nil
	case "moderator", "mod":
		return RoleModerator, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}
