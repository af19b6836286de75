package identity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidUser is returned when a user payload is missing or malformed.
var ErrInvalidUser = errors.New("invalid user record")

// User is the authenticated account as returned by the API.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Identifier returns the name shown for the account: the username when set,
// otherwise the email.
func (u User) Identifier() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// DecodeUser parses a user payload and checks its role.
func DecodeUser(raw json.RawMessage) (*User, error) {
	if isAbsent(raw) {
		return nil, ErrInvalidUser
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	if !u.Role.Valid() {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidUser, ErrUnknownRole, string(u.Role))
	}
	return &u, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
