package skillsync

import (
	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/session"
)

// SessionData is the identity an authenticated session carries.
type SessionData struct {
	User    *identity.User
	Profile identity.Profile
}

func sessionDataFrom(snap session.Snapshot) *SessionData {
	if !snap.Authenticated() {
		return nil
	}
	return &SessionData{User: snap.User, Profile: snap.Profile}
}

// RegisterRequest is the account creation payload. Username defaults to the
// local part of Email on the server. Profile fields that do not apply to
// Role are ignored by the server.
type RegisterRequest struct {
	Email           string        `json:"email"`
	Username        string        `json:"username,omitempty"`
	Password        string        `json:"password"`
	ConfirmPassword string        `json:"confirm_password"`
	Role            identity.Role `json:"role"`
	Name            string        `json:"name,omitempty"`

	CompanyName string `json:"company_name,omitempty"`

	Skills          []string `json:"skills,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	HourlyRate      string   `json:"hourly_rate,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	PortfolioLinks  []string `json:"portfolio_links,omitempty"`
}

// ProfileUpdate is a partial update of the signed-in account. Only the keys
// present are sent; either half may be nil.
type ProfileUpdate struct {
	User    map[string]any `json:"user,omitempty"`
	Profile map[string]any `json:"profile,omitempty"`
}
