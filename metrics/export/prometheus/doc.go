// Package prometheus renders client metrics in the Prometheus text format.
//
// Counter names are skillsync_*_total; the one histogram is
// skillsync_gateway_latency_seconds. The current session is exposed as the
// skillsync_session_state gauge, labelled by state. Mount [PrometheusExporter.Handler]
// wherever the process serves metrics.
package prometheus
