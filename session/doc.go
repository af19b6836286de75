// Package session holds the resolved authentication state of one client.
//
// The [Container] is the single owner of the current [Snapshot]. Every
// transition goes through it under one mutex, and every published snapshot
// carries a strictly increasing version, so observers can tell two snapshots
// apart even when nothing visible changed.
//
// # Generations
//
// Work that crosses a network call (bootstrap, login, profile save) records
// the container generation before it starts and applies its result with
// [Container.Apply]. An operation that invalidates in-flight work (login,
// logout) calls [Container.Advance] first, so late results from the older
// generation are dropped instead of overwriting newer state.
//
// # Architecture boundaries
//
// This package does no I/O. It does not know about tokens, HTTP, or routes;
// the root Client feeds it results and the access package reads snapshots.
//
// # What this package must NOT do
//
//   - Block while holding the lock on anything but subscriber channel sends
//     that are guaranteed not to block.
//   - Return to Unresolved once resolved.
//   - Publish an Authenticated snapshot without both a user and a profile.
package session
