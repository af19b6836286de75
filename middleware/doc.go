// Package middleware adapts the access gate to net/http.
//
// # Guards
//
//   - [Protect] guards a handler with one access.Requirement.
//   - [RequireClient] and [RequireFreelancer] are role shortcuts.
//   - [Routes] applies the guard of the matching access.Table route.
//
// Each guard waits for the session to resolve, so a protected handler never
// runs, and no redirect is issued, while the session is still unknown.
//
// # What this package must NOT do
//
//   - Decide access itself; decisions come from access.CanEnter.
//   - Change the session or the stored credentials.
package middleware
