// Package refresh exchanges a refresh token for a new access token.
//
// The exchange is optional: a Client without an [Exchanger] simply treats an
// expired access token as a failed identity fetch. [SimpleJWT] talks to the
// API's token refresh endpoint, and [Policy] decides from the access token's
// own expiry claim whether an exchange should happen before a request.
//
// # Architecture boundaries
//
// Exchangers return the new credentials. Persisting them and re-resolving the
// session is the Client's job.
//
// # What this package must NOT do
//
//   - Write to a token store.
//   - Retry a rejected refresh token.
//   - Log token values.
package refresh
