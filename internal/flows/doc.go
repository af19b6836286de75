// Package flows contains the orchestration behind every Client operation.
//
// Each flow (RunBootstrap, RunLogin, RunSaveProfile, ...) receives a typed
// dependency struct and returns a result. Flows make the network calls and
// touch the token store only through those dependencies, and they never
// change session state: the Client applies a flow's result to the session
// container once the flow returns, and only if the generation the flow
// started in is still current.
//
// # Architecture boundaries
//
// Store writes and clears that must not outlive a superseded operation are
// passed in already guarded by the Client. Flows do not know about
// generations.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import skillsync (to avoid import cycles) or session.
//   - Log or return token values in errors.
package flows
