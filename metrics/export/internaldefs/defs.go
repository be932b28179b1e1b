package internaldefs

import (
	authgate "github.com/feldspar-io/authgate"
)

// CounterDef binds one engine counter to its exported metric name.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported metric name.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs enumerates every exported engine counter.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricIssueSuccess, Name: "authgate_issue_success_total", Help: "Successfully issued sessions."},
	{ID: authgate.MetricIssueFailure, Name: "authgate_issue_failure_total", Help: "Failed session issuances."},
	{ID: authgate.MetricResolveAuthenticated, Name: "authgate_resolve_authenticated_total", Help: "Resolves yielding an authenticated identity."},
	{ID: authgate.MetricResolveUnauthenticated, Name: "authgate_resolve_unauthenticated_total", Help: "Resolves yielding no identity."},
	{ID: authgate.MetricResolveTwoFactorPending, Name: "authgate_resolve_two_factor_pending_total", Help: "Resolves blocked on a second factor."},
	{ID: authgate.MetricRotation, Name: "authgate_rotation_total", Help: "Credential rotations performed during resolve."},
	{ID: authgate.MetricRotationFailure, Name: "authgate_rotation_failure_total", Help: "Rotations aborted by store failure."},
	{ID: authgate.MetricSessionRevoked, Name: "authgate_session_revoked_total", Help: "Single-session invalidations."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Transport-level logout operations."},
	{ID: authgate.MetricLogoutAll, Name: "authgate_logout_all_total", Help: "User-wide invalidations."},
	{ID: authgate.MetricStoreError, Name: "authgate_store_error_total", Help: "Propagated store infrastructure failures."},
}

// HistogramDefs enumerates every exported engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricResolveLatency, Name: "authgate_resolve_latency_seconds", Help: "Resolve latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
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

// HistogramBoundSuffix are metric-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
