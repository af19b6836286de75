package internaldefs

import (
	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/session"
)

// CounterDef names one client counter.
type CounterDef struct {
	ID   skillsync.MetricID
	Name string
	Help string
}

// HistogramDef names one client latency histogram.
type HistogramDef struct {
	ID   skillsync.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "skillsync_audit_dropped_total"

// Session gauges describe the current snapshot rather than counting events.
const (
	SessionStateName      = "skillsync_session_state"
	SessionStateHelp      = "Current session state; the series for the active state is 1."
	SessionGenerationName = "skillsync_session_generation"
	SessionGenerationHelp = "Login/logout generation of the current session."
	SessionVersionName    = "skillsync_session_version"
	SessionVersionHelp    = "Number of session snapshots published so far."
)

// SessionStates is the exposition order of the session_state series.
var SessionStates = []session.State{
	session.Unresolved,
	session.Anonymous,
	session.Authenticated,
}

// StateValue is 1 for the state snap is in and 0 for every other.
func StateValue(snap session.Snapshot, state session.State) uint64 {
	if snap.State == state {
		return 1
	}
	return 0
}

var CounterDefs = []CounterDef{
	{ID: skillsync.MetricBootstrapAuthenticated, Name: "skillsync_bootstrap_authenticated_total", Help: "Resolutions that ended signed in."},
	{ID: skillsync.MetricBootstrapAnonymous, Name: "skillsync_bootstrap_anonymous_total", Help: "Resolutions that ended signed out."},
	{ID: skillsync.MetricLoginSuccess, Name: "skillsync_login_success_total", Help: "Successful logins."},
	{ID: skillsync.MetricLoginFailure, Name: "skillsync_login_failure_total", Help: "Failed logins."},
	{ID: skillsync.MetricRegisterSuccess, Name: "skillsync_register_success_total", Help: "Accounts created."},
	{ID: skillsync.MetricRegisterFailure, Name: "skillsync_register_failure_total", Help: "Rejected registrations."},
	{ID: skillsync.MetricLogout, Name: "skillsync_logout_total", Help: "Logouts."},
	{ID: skillsync.MetricProfileSaveSuccess, Name: "skillsync_profile_save_success_total", Help: "Saved profile updates."},
	{ID: skillsync.MetricProfileSaveFailure, Name: "skillsync_profile_save_failure_total", Help: "Failed profile updates."},
	{ID: skillsync.MetricReload, Name: "skillsync_reload_total", Help: "Identity reloads."},
	{ID: skillsync.MetricRefreshSuccess, Name: "skillsync_refresh_success_total", Help: "Successful refresh-token exchanges."},
	{ID: skillsync.MetricRefreshFailure, Name: "skillsync_refresh_failure_total", Help: "Failed refresh-token exchanges."},
	{ID: skillsync.MetricCredentialsCleared, Name: "skillsync_credentials_cleared_total", Help: "Stored credentials discarded after a failed identity fetch."},
	{ID: skillsync.MetricStaleResultDropped, Name: "skillsync_stale_result_dropped_total", Help: "Results discarded because a login or logout superseded them."},
	{ID: skillsync.MetricGatewayFailure, Name: "skillsync_gateway_failure_total", Help: "API requests that failed."},
}

var HistogramDefs = []HistogramDef{
	{ID: skillsync.MetricGatewayLatency, Name: "skillsync_gateway_latency_seconds", Help: "API request latency."},
}

// HistogramBounds are the upper bounds of the eight latency buckets in
// seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
