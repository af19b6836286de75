// Package otel publishes client metrics through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter, one
// bucket gauge per histogram keyed by an "le" attribute, and session gauges
// for state, generation and version. A single callback reads
// Client.MetricsSnapshot and Client.Snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Change client state.
package otel
