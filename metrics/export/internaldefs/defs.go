package internaldefs

import (
	originauth "github.com/originauth/originauth"
)

// CounterDef pairs a core metric id with its stable exported name.
type CounterDef struct {
	ID   originauth.MetricID
	Name string
	Help string
}

// HistogramDef pairs a core histogram id with its stable exported name.
type HistogramDef struct {
	ID   originauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a fixed order.
var CounterDefs = []CounterDef{
	{ID: originauth.MetricSignInSuccess, Name: "originauth_signin_success_total", Help: "Successful sign-ins."},
	{ID: originauth.MetricSignInFailure, Name: "originauth_signin_failure_total", Help: "Failed sign-ins."},
	{ID: originauth.MetricSignInConflict, Name: "originauth_signin_conflict_total", Help: "Sign-ins rejected as identity conflicts."},
	{ID: originauth.MetricUserCreated, Name: "originauth_user_created_total", Help: "Users created on first sign-in."},
	{ID: originauth.MetricOriginLinked, Name: "originauth_origin_linked_total", Help: "Origins linked onto existing users."},
	{ID: originauth.MetricTokenIssued, Name: "originauth_token_issued_total", Help: "Session tokens issued."},
	{ID: originauth.MetricAuthSuccess, Name: "originauth_auth_success_total", Help: "Successful token authentications."},
	{ID: originauth.MetricAuthMalformed, Name: "originauth_auth_malformed_total", Help: "Authentications rejected for malformed tokens."},
	{ID: originauth.MetricAuthBadSignature, Name: "originauth_auth_bad_signature_total", Help: "Authentications rejected for invalid signatures."},
	{ID: originauth.MetricAuthExpired, Name: "originauth_auth_expired_total", Help: "Authentications rejected for expired tokens."},
	{ID: originauth.MetricAuthNotYetValid, Name: "originauth_auth_not_yet_valid_total", Help: "Authentications rejected for issued-in-future tokens."},
	{ID: originauth.MetricAuthRevoked, Name: "originauth_auth_revoked_total", Help: "Authentications rejected for revoked tokens."},
	{ID: originauth.MetricAuthUserNotFound, Name: "originauth_auth_user_not_found_total", Help: "Authentications whose token user no longer exists."},
	{ID: originauth.MetricAuthUnavailable, Name: "originauth_auth_unavailable_total", Help: "Authentications aborted by collaborator outages."},
	{ID: originauth.MetricBlacklistHit, Name: "originauth_blacklist_hit_total", Help: "Revocation checks answered by the blacklist."},
	{ID: originauth.MetricVersionMismatch, Name: "originauth_version_mismatch_total", Help: "Revocation checks answered by a token-version mismatch."},
	{ID: originauth.MetricTokenRevoked, Name: "originauth_token_revoked_total", Help: "Single-token revocations."},
	{ID: originauth.MetricRevokeAll, Name: "originauth_revoke_all_total", Help: "Mass revocations via token-version bumps."},
}

// HistogramDefs lists every exported histogram in a fixed order.
var HistogramDefs = []HistogramDef{
	{ID: originauth.MetricAuthenticateLatency, Name: "originauth_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, as rendered in
// Prometheus le labels.
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

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OTel instrument names.
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

// NormalizeBuckets widens a possibly-short raw bucket slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exposition formats require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
