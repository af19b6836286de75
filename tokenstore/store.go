package tokenstore

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a backend cannot be read or written.
var ErrUnavailable = errors.New("token store unavailable")

// Keys are the storage names of the two credentials. The version segment
// changes only if the stored representation does.
var Keys = struct {
	Access  string
	Refresh string
}{
	Access:  "skillsync:v1:access",
	Refresh: "skillsync:v1:refresh",
}

// Pair is the credential pair. Either field may be absent; absent is the
// empty string.
type Pair struct {
	Access  string
	Refresh string
}

// HasAccess reports whether an access token is present.
func (p Pair) HasAccess() bool { return p.Access != "" }

// HasRefresh reports whether a refresh token is present.
func (p Pair) HasRefresh() bool { return p.Refresh != "" }

// IsEmpty reports whether neither credential is present.
func (p Pair) IsEmpty() bool { return p.Access == "" && p.Refresh == "" }

// Merge overlays the present fields of update onto p.
func (p Pair) Merge(update Pair) Pair {
	if update.Access != "" {
		p.Access = update.Access
	}
	if update.Refresh != "" {
		p.Refresh = update.Refresh
	}
	return p
}

// Store is durable, synchronous credential storage. Implementations must be
// safe for concurrent use; the session layer is the only writer in practice.
type Store interface {
	// Read returns whichever credentials are present.
	Read(ctx context.Context) (Pair, error)
	// Write stores the non-empty fields of p and leaves the others untouched.
	Write(ctx context.Context, p Pair) error
	// Replace stores exactly p in one step. A field empty in p is removed,
	// so nothing from an earlier pair survives.
	Replace(ctx context.Context, p Pair) error
	// Clear removes both credentials in one step.
	Clear(ctx context.Context) error
}
