// Package gateway is the single choke point for every SkillSync API call.
//
// [Gateway.Request] injects the bearer credential when a call requires it,
// serializes the JSON body, tolerates empty or non-JSON responses, and turns
// every failed response into one [Error] carrying a flat, human-readable
// message ([NormalizeMessage]).
//
// # Architecture boundaries
//
// The gateway reads the access token but never writes credentials, and it does
// not interpret status codes beyond success/failure. Deciding that a 401 means
// "log out" belongs to the session layer.
//
// # What this package must NOT do
//
//   - Block a call because no access token is present; the server decides.
//   - Return raw transport details as the user-facing message.
//   - Log request bodies or credentials.
package gateway
