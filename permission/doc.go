// Package permission maps capability names to bits and roles to capability
// masks.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It knows
// nothing about SkillSync roles or routes; access builds the marketplace's
// capability table on top of it.
//
// # What this package must NOT do
//
//   - Access the network or the token store.
//   - Import skillsync, session or access.
//   - Reassign a bit once it has been registered.
package permission
