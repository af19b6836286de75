// Package audit implements async delivery of session transition events.
//
// # Components
//
//   - [Sink] is the interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher] is a buffered async relay with drop-if-full or block-if-full semantics.
//     It numbers events in emit order and counts drops per event type.
//   - [Event] is one structured record: sequence, timestamp, type, user, role, session state.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Client.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import skillsync or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
