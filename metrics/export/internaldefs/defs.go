package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session manager.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login flows."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login flows."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Successful registrations."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Failed registrations."},
	{ID: goSession.MetricTwoFactorRequired, Name: "gosession_two_factor_required_total", Help: "Logins deferred into a 2FA challenge."},
	{ID: goSession.MetricTwoFactorSuccess, Name: "gosession_two_factor_success_total", Help: "Successful 2FA verifications."},
	{ID: goSession.MetricTwoFactorFailure, Name: "gosession_two_factor_failure_total", Help: "Failed 2FA verifications."},
	{ID: goSession.MetricMagicLinkSuccess, Name: "gosession_magic_link_success_total", Help: "Successful magic link redemptions."},
	{ID: goSession.MetricMagicLinkFailure, Name: "gosession_magic_link_failure_total", Help: "Failed magic link redemptions."},
	{ID: goSession.MetricOAuthSuccess, Name: "gosession_oauth_success_total", Help: "Successful OAuth logins."},
	{ID: goSession.MetricOAuthFailure, Name: "gosession_oauth_failure_total", Help: "Failed OAuth logins."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goSession.MetricRefreshShared, Name: "gosession_refresh_shared_total", Help: "Refresh callers served by an already in-flight request."},
	{ID: goSession.MetricValiditySuccess, Name: "gosession_validity_success_total", Help: "Validity checks that confirmed the session."},
	{ID: goSession.MetricValidityFailure, Name: "gosession_validity_failure_total", Help: "Validity checks that rejected the session."},
	{ID: goSession.MetricForcedLogout, Name: "gosession_forced_logout_total", Help: "Server-initiated logouts."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "User-initiated logouts."},
	{ID: goSession.MetricBootstrapRestored, Name: "gosession_bootstrap_restored_total", Help: "Cold starts restored from stored credentials."},
	{ID: goSession.MetricBootstrapUnauthenticated, Name: "gosession_bootstrap_unauthenticated_total", Help: "Cold starts resolved unauthenticated."},
	{ID: goSession.MetricStaleResultDiscarded, Name: "gosession_stale_result_discarded_total", Help: "In-flight results discarded after logout or close."},
	{ID: goSession.MetricSubscriberDropped, Name: "gosession_subscriber_dropped_total", Help: "State updates shed from slow subscribers."},
}

// HistogramDefs is an exported constant or variable used by the session manager.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Token refresh latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session manager.
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

// HistogramBoundSuffix is an exported constant or variable used by the session manager.
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

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
