// Package identity defines the account records a SkillSync session carries: the
// closed [Role] classification, the [User] record and the role-shaped [Profile].
//
// # Role dispatch
//
// Profiles are a tagged variant over [Role]. Decoding goes through a per-role
// table ([DecodeProfile]) instead of scattered "if client ... else ..." checks,
// so introducing a role means adding one table entry.
//
// # Architecture boundaries
//
// This package owns record shapes and their JSON decoding. It does NOT talk to
// the network, hold session state, or decide access.
//
// # What this package must NOT do
//
//   - Import skillsync, session, gateway or access (no upward imports).
//   - Interpret profile contents beyond decoding them.
package identity
