// Package tokenstore persists the credential pair (access + refresh token) a
// SkillSync client holds between runs.
//
// # Backends
//
//   - [MemoryStore]: process-local, for tests and short-lived tools.
//   - [FileStore]: JSON document on disk, replaced atomically on every write.
//   - [RedisStore]: a Redis hash, for clients that share credentials across processes.
//
// All backends store values under the stable, versioned [Keys]. An empty string
// is never persisted, so "absent" has exactly one representation.
//
// # Architecture boundaries
//
// This package owns credential persistence only. It does NOT validate or parse
// tokens, talk to the SkillSync API, or decide when credentials are cleared;
// the session layer does.
//
// # What this package must NOT do
//
//   - Import skillsync, gateway or session (no upward imports).
//   - Cache reads: every Read observes the latest Write or Clear.
//   - Log token values.
package tokenstore
