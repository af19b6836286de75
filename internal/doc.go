// Package internal groups the parts of skillsync that are private to the
// module.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: the session operations as functions over explicit dependencies
//   - cli: the skillsync command tree, settings and terminal output
//
// # What this package must NOT do
//
//   - Export types that appear in the public skillsync API.
//   - Be imported by any package outside the skillsync module.
package internal
