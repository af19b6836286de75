package session

import "github.com/MrEthical07/skillsync/identity"

// State is the session lifecycle position.
type State uint8

const (
	// Unresolved is the initial state: the stored credentials have not been
	// checked yet and no decision may be made on them.
	Unresolved State = iota
	// Anonymous means no usable credentials.
	Anonymous
	// Authenticated means the identity fetch succeeded.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Snapshot is an immutable view of the session. User and Profile are both
// set in the Authenticated state and both nil otherwise.
type Snapshot struct {
	State   State
	User    *identity.User
	Profile identity.Profile

	// Generation is the container generation the snapshot was published in.
	Generation uint64
	// Version increases by one with every published snapshot.
	Version uint64
}

// Resolved reports whether the initial credential check has completed.
func (s Snapshot) Resolved() bool { return s.State != Unresolved }

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool { return s.State == Authenticated && s.User != nil }

// Role returns the signed-in user's role, or identity.RoleNone.
func (s Snapshot) Role() identity.Role {
	if !s.Authenticated() {
		return identity.RoleNone
	}
	return s.User.Role
}

// Transition is the target of a state change.
type Transition struct {
	State   State
	User    *identity.User
	Profile identity.Profile
}

// ToAnonymous is the transition to the signed-out state.
func ToAnonymous() Transition { return Transition{State: Anonymous} }

// ToAuthenticated is the transition to the signed-in state.
func ToAuthenticated(user *identity.User, profile identity.Profile) Transition {
	return Transition{State: Authenticated, User: user, Profile: profile}
}

func (t Transition) validate() error {
	switch t.State {
	case Anonymous:
		if t.User != nil || t.Profile != nil {
			return ErrInvalidTransition
		}
		return nil
	case Authenticated:
		if t.User == nil || t.Profile == nil {
			return ErrInvalidTransition
		}
		if t.Profile.Role() != t.User.Role {
			return ErrInvalidTransition
		}
		return nil
	default:
		return ErrInvalidTransition
	}
}
