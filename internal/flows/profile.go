package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrEthical07/skillsync/identity"
)

// ProfilePatch is what a profile save returned. Either half may be absent.
type ProfilePatch struct {
	User    json.RawMessage
	Profile json.RawMessage
}

// SaveProfileDeps captures profile update dependencies.
type SaveProfileDeps struct {
	API    API
	Path   string
	Errors Errors
}

// RunSaveProfile sends the update and returns the server's view of the
// changed records.
func RunSaveProfile(ctx context.Context, payload any, deps SaveProfileDeps) (*ProfilePatch, error) {
	if deps.API == nil {
		return nil, deps.Errors.ClientNotReady
	}
	path := deps.Path
	if path == "" {
		path = DefaultPaths.Me
	}

	resp, err := deps.API.Request(ctx, http.MethodPut, path, payload, true)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return &ProfilePatch{}, nil
	}
	var env meEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.MalformedResponse, err)
	}
	return &ProfilePatch{User: nonNull(env.User), Profile: nonNull(env.Profile)}, nil
}

// Merge applies the patch over the current identity. A half the server did
// not return is kept. The role is fixed for the life of a session, so a
// returned user carrying another role is rejected rather than adopted.
func (p *ProfilePatch) Merge(user *identity.User, profile identity.Profile, errs Errors) (*Identity, error) {
	if user == nil || profile == nil {
		return nil, errs.NotAuthenticated
	}
	out := &Identity{User: user, Profile: profile}
	if p == nil {
		return out, nil
	}

	if p.User != nil {
		u, err := identity.DecodeUser(p.User)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.MalformedResponse, err)
		}
		if u.Role != user.Role {
			return nil, fmt.Errorf("%w: role changed from %s to %s", errs.MalformedResponse, user.Role, u.Role)
		}
		out.User = u
	}
	if p.Profile != nil {
		prof, err := identity.DecodeProfile(out.User.Role, p.Profile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.MalformedResponse, err)
		}
		out.Profile = prof
	}
	if out.Profile.Role() != out.User.Role {
		return nil, fmt.Errorf("%w: profile does not match user role", errs.MalformedResponse)
	}
	return out, nil
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
