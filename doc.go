// Package skillsync is the client-side session layer of the SkillSync
// marketplace: it keeps the bearer credentials, attaches them to API calls,
// resolves who the user is and tells route guards whether a screen may be
// entered.
//
// A [Client] is assembled with [Builder] and starts Unresolved. Until
// [Client.Bootstrap] (or Login or Logout) settles the session, access
// decisions are Pending and nothing protected is shown. Client methods are
// safe to call from multiple goroutines.
//
// # Architecture boundaries
//
// skillsync is the public surface. It exposes [Client], [Builder], [Config]
// and value types (SessionData, MetricsSnapshot, RegisterRequest). Credential
// persistence lives in tokenstore, HTTP in gateway, the session state machine
// in session and route decisions in access. Flow orchestration is in
// internal/flows and is never exported.
//
// # What this package must NOT do
//
//   - Validate token signatures. The server is the authority; the client
//     only reads expiry claims when refresh is enabled.
//   - Apply the result of an operation that a later login or logout
//     superseded.
//   - Leave the session Unresolved after Bootstrap returns.
package skillsync
