package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrEthical07/skillsync/identity"
)

// Identity is a decoded {user, profile} pair.
type Identity struct {
	User    *identity.User
	Profile identity.Profile
}

// IdentityDeps captures identity fetch dependencies.
type IdentityDeps struct {
	API    API
	Path   string
	Errors Errors
}

type meEnvelope struct {
	User    json.RawMessage `json:"user"`
	Profile json.RawMessage `json:"profile"`
}

// RunIdentityFetch performs the authenticated identity fetch and decodes the
// profile variant matching the user's role.
func RunIdentityFetch(ctx context.Context, deps IdentityDeps) (*Identity, error) {
	if deps.API == nil {
		return nil, deps.Errors.ClientNotReady
	}
	path := deps.Path
	if path == "" {
		path = DefaultPaths.Me
	}

	resp, err := deps.API.Request(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var env meEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.MalformedResponse, err)
	}
	return DecodeIdentity(env.User, env.Profile, deps.Errors)
}

// DecodeIdentity decodes a user and the profile variant its role selects.
func DecodeIdentity(rawUser, rawProfile json.RawMessage, errs Errors) (*Identity, error) {
	user, err := identity.DecodeUser(rawUser)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.MalformedResponse, err)
	}
	profile, err := identity.DecodeProfile(user.Role, rawProfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.MalformedResponse, err)
	}
	return &Identity{User: user, Profile: profile}, nil
}
