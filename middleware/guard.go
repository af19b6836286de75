package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/skillsync/access"
	"github.com/MrEthical07/skillsync/session"
)

// SessionSource is what Protect needs from a Client.
type SessionSource interface {
	WaitResolved(ctx context.Context) (session.Snapshot, error)
}

type snapshotContextKey struct{}

// SnapshotFromContext returns the snapshot Protect admitted the request with.
func SnapshotFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(session.Snapshot)
	return snap, ok
}

// Protect guards a handler with req. The request waits, bounded by its own
// context, until the session is resolved; if it is still unresolved when the
// context ends the response is 503 and the handler never runs. Anonymous
// sessions are redirected to the login page and role mismatches to the home
// page.
func Protect(source SessionSource, req access.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			snap, err := source.WaitResolved(r.Context())
			if err != nil {
				http.Error(w, "session pending", http.StatusServiceUnavailable)
				return
			}

			switch d := access.CanEnter(snap, req); d {
			case access.Allow:
				ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
				next.ServeHTTP(w, r.WithContext(ctx))
			case access.Pending:
				http.Error(w, "session pending", http.StatusServiceUnavailable)
			default:
				http.Redirect(w, r, d.Redirect(), http.StatusFound)
			}
		})
	}
}
