package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when the backend reports a user type outside
// the closed Role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of user roles the client understands.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleManagement Role = "MANAGEMENT"
	RoleFinance    Role = "FINANCE"
)

// ParseRole upper-cases a backend user type ("staff") and maps it onto Role.
// Unrecognised values fail with ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleStaff, RoleManagement, RoleFinance:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity is the authenticated user as held by the client.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IdentityFromDetail builds an Identity from the login response user summary.
func IdentityFromDetail(d UserDetail) (Identity, error) {
	role, err := ParseRole(d.UserType)
	if err != nil {
		return Identity{}, err
	}
	if d.ID == "" {
		return Identity{}, errors.New("user id is empty")
	}
	return Identity{ID: d.ID, Username: d.Username, Role: role}, nil
}
