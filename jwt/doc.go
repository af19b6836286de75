// Package jwt reads the claims of SkillSync access tokens without verifying
// them.
//
// The client never holds a signing key: tokens are issued and verified by the
// API. The only question the client asks of a token is whether it has already
// expired, so a refresh can be attempted before the identity fetch instead of
// after a guaranteed 401.
//
// # What this package must NOT do
//
//   - Treat a decoded token as authenticated. Signatures are not checked.
//   - Touch the token store or the network.
package jwt
