package access

import (
	"fmt"

	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/permission"
	"github.com/MrEthical07/skillsync/session"
)

// Capability names.
const (
	CapNavDashboard    = "nav.dashboard"
	CapNavProjects     = "nav.projects"
	CapNavApplications = "nav.applications"
	CapNavResume       = "nav.resume"
	CapNavProfile      = "nav.profile"
	CapProjectsCreate  = "projects.create"
	CapProjectsApply   = "projects.apply"
)

// Link is a navigation entry.
type Link struct {
	Label string
	Path  string
}

type navEntry struct {
	Link
	Capability string
}

// Navigation order for signed-in users; each entry shows only when the role
// holds its capability.
var memberNav = []navEntry{
	{Link{"Dashboard", "/dashboard"}, CapNavDashboard},
	{Link{"Projects", "/projects"}, CapNavProjects},
	{Link{"Applications", "/applications"}, CapNavApplications},
	{Link{"Resume", "/resume"}, CapNavResume},
	{Link{"Profile", "/profile"}, CapNavProfile},
}

var guestNav = []Link{
	{"Home", HomePath},
	{"Login", LoginPath},
	{"Register", RegisterPath},
}

// Capabilities is the role capability table.
type Capabilities struct {
	registry *permission.Registry
	roles    *permission.RoleManager
}

// NewCapabilities builds a frozen table from role grants. Capabilities are
// registered in the order they first appear.
func NewCapabilities(grants map[identity.Role][]string) (*Capabilities, error) {
	reg := permission.NewRegistry()
	for _, role := range identity.Roles() {
		for _, name := range grants[role] {
			if _, ok := reg.Bit(name); ok {
				continue
			}
			if _, err := reg.Register(name); err != nil {
				return nil, fmt.Errorf("register capability %q: %w", name, err)
			}
		}
	}
	reg.Freeze()

	rm := permission.NewRoleManager(reg)
	for role, names := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("%w %q", identity.ErrUnknownRole, string(role))
		}
		if err := rm.RegisterRole(string(role), names); err != nil {
			return nil, err
		}
	}
	rm.Freeze()
	return &Capabilities{registry: reg, roles: rm}, nil
}

// DefaultGrants are the SkillSync role capabilities.
func DefaultGrants() map[identity.Role][]string {
	return map[identity.Role][]string{
		identity.RoleClient: {
			CapNavDashboard, CapNavProjects, CapNavApplications, CapNavProfile,
			CapProjectsCreate,
		},
		identity.RoleFreelancer: {
			CapNavDashboard, CapNavProjects, CapNavApplications, CapNavResume, CapNavProfile,
			CapProjectsApply,
		},
	}
}

var defaultCapabilities = mustCapabilities(DefaultGrants())

func mustCapabilities(grants map[identity.Role][]string) *Capabilities {
	c, err := NewCapabilities(grants)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCapabilities returns the table built from DefaultGrants.
func DefaultCapabilities() *Capabilities {
	return defaultCapabilities
}

// Allows reports whether snap's user holds capability. Unresolved and
// anonymous sessions hold none.
func (c *Capabilities) Allows(snap session.Snapshot, capability string) bool {
	if !snap.Authenticated() {
		return false
	}
	return c.roles.Allows(string(snap.Role()), capability)
}

// Of lists role's capabilities.
func (c *Capabilities) Of(role identity.Role) []string {
	return c.roles.Capabilities(string(role))
}

// Navigation returns the links for snap. An unresolved session gets none.
func (c *Capabilities) Navigation(snap session.Snapshot) []Link {
	if !snap.Resolved() {
		return nil
	}
	if !snap.Authenticated() {
		out := make([]Link, len(guestNav))
		copy(out, guestNav)
		return out
	}
	var out []Link
	for _, e := range memberNav {
		if c.Allows(snap, e.Capability) {
			out = append(out, e.Link)
		}
	}
	return out
}

// Navigation uses DefaultCapabilities.
func Navigation(snap session.Snapshot) []Link {
	return defaultCapabilities.Navigation(snap)
}
