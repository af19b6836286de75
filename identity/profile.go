package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidProfile is returned when a profile payload cannot be decoded for
// the owning user's role.
var ErrInvalidProfile = errors.New("invalid profile record")

// Profile is the role-shaped half of a session. Concrete values are
// *ClientProfile and *FreelancerProfile.
type Profile interface {
	// Role reports which variant this is.
	Role() Role
	// DisplayName is the human name stored on the profile.
	DisplayName() string
	// Raw returns the payload the profile was decoded from.
	Raw() json.RawMessage
}

// ClientProfile carries organization attributes.
type ClientProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`

	raw json.RawMessage
}

func (p *ClientProfile) Role() Role          { return RoleClient }
func (p *ClientProfile) DisplayName() string { return p.Name }
func (p *ClientProfile) Raw() json.RawMessage {
	return cloneRaw(p.raw)
}

// FreelancerProfile carries skills, experience, rate and bio.
type FreelancerProfile struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	ExperienceLevel string   `json:"experience_level"`
	HourlyRate      Decimal  `json:"hourly_rate"`
	Bio             string   `json:"bio"`
	PortfolioLinks  []string `json:"portfolio_links"`
	Rating          float64  `json:"rating"`

	raw json.RawMessage
}

func (p *FreelancerProfile) Role() Role          { return RoleFreelancer }
func (p *FreelancerProfile) DisplayName() string { return p.Name }
func (p *FreelancerProfile) Raw() json.RawMessage {
	return cloneRaw(p.raw)
}

type profileDecoder func(raw json.RawMessage) (Profile, error)

// profileDecoders is the single place that knows how each role's profile is
// shaped. Role.Valid is derived from its keys.
var profileDecoders = map[Role]profileDecoder{
	RoleClient: func(raw json.RawMessage) (Profile, error) {
		p := &ClientProfile{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		p.raw = cloneRaw(raw)
		return p, nil
	},
	RoleFreelancer: func(raw json.RawMessage) (Profile, error) {
		p := &FreelancerProfile{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		p.raw = cloneRaw(raw)
		return p, nil
	},
}

// DecodeProfile decodes raw as the profile variant for role.
func DecodeProfile(role Role, raw json.RawMessage) (Profile, error) {
	decode, ok := profileDecoders[role]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidProfile, ErrUnknownRole, string(role))
	}
	if isAbsent(raw) || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, ErrInvalidProfile
	}
	p, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}

// Decimal holds a fixed-point amount exactly as the server rendered it. The
// API emits decimals as JSON strings ("45.00") but numbers are accepted too.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*d = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return fmt.Errorf("decimal: %w", err)
		}
		*d = Decimal(b)
		return nil
	}
}

// Float parses the amount. An empty decimal is zero.
func (d Decimal) Float() (float64, error) {
	if d == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(d), 64)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
