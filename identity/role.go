package identity

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned when a role string is not one of the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed classification of an account.
type Role string

const (
	// RoleNone is the zero value. It is never a valid account role; route
	// requirements use it to mean "any authenticated role".
	RoleNone Role = ""
	// RoleClient posts projects and reviews applications.
	RoleClient Role = "client"
	// RoleFreelancer applies to projects and maintains a resume.
	RoleFreelancer Role = "freelancer"
)

// Roles lists every valid account role in a stable order.
func Roles() []Role {
	return []Role{RoleClient, RoleFreelancer}
}

// Valid reports whether r is an account role.
func (r Role) Valid() bool {
	_, ok := profileDecoders[r]
	return ok
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// ParseRole maps s onto a Role, ignoring case and surrounding space.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleNone, ErrUnknownRole
	}
	return r, nil
}
