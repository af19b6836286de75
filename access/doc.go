// Package access decides whether a screen may be shown for a session and
// which navigation links a session sees.
//
// Every decision is a pure function of a [session.Snapshot]. While the
// snapshot is Unresolved the answer is [Pending] for every protected route,
// so a caller never shows protected content or redirects before the session
// is known.
//
// # Architecture boundaries
//
// access reads snapshots; it never changes them, performs I/O or talks to
// the token store. Role capabilities are kept in a permission.RoleManager so
// adding a role is a table entry.
package access
