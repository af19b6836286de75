package access

import (
	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/session"
)

// Decision is the outcome of a route guard.
type Decision int

const (
	// Pending means the session is not resolved yet; render nothing.
	Pending Decision = iota
	Allow
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Redirect returns the path a redirect decision points to, or "" for
// Pending and Allow.
func (d Decision) Redirect() string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToHome:
		return HomePath
	default:
		return ""
	}
}

const (
	HomePath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Requirement guards a route. The zero value only requires a signed-in user.
type Requirement struct {
	Role identity.Role
}

// CanEnter decides whether snap may enter a route guarded by req.
func CanEnter(snap session.Snapshot, req Requirement) Decision {
	switch {
	case !snap.Resolved():
		return Pending
	case !snap.Authenticated():
		return RedirectToLogin
	case req.Role != identity.RoleNone && snap.Role() != req.Role:
		return RedirectToHome
	default:
		return Allow
	}
}
