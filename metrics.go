package originauth

import (
	internalmetrics "github.com/originauth/originauth/internal/metrics"
)

// MetricID identifies one engine counter or histogram.
type MetricID = internalmetrics.MetricID

// Counter and histogram ids exposed through [Engine.MetricsSnapshot] and the
// metrics/export packages.
const (
	MetricSignInSuccess       = internalmetrics.MetricSignInSuccess
	MetricSignInFailure       = internalmetrics.MetricSignInFailure
	MetricSignInConflict      = internalmetrics.MetricSignInConflict
	MetricUserCreated         = internalmetrics.MetricUserCreated
	MetricOriginLinked        = internalmetrics.MetricOriginLinked
	MetricTokenIssued         = internalmetrics.MetricTokenIssued
	MetricAuthSuccess         = internalmetrics.MetricAuthSuccess
	MetricAuthMalformed       = internalmetrics.MetricAuthMalformed
	MetricAuthBadSignature    = internalmetrics.MetricAuthBadSignature
	MetricAuthExpired         = internalmetrics.MetricAuthExpired
	MetricAuthNotYetValid     = internalmetrics.MetricAuthNotYetValid
	MetricAuthRevoked         = internalmetrics.MetricAuthRevoked
	MetricAuthUserNotFound    = internalmetrics.MetricAuthUserNotFound
	MetricAuthUnavailable     = internalmetrics.MetricAuthUnavailable
	MetricBlacklistHit        = internalmetrics.MetricBlacklistHit
	MetricVersionMismatch     = internalmetrics.MetricVersionMismatch
	MetricTokenRevoked        = internalmetrics.MetricTokenRevoked
	MetricRevokeAll           = internalmetrics.MetricRevokeAll
	MetricAuthenticateLatency = internalmetrics.MetricAuthenticateLatency
)

// Metrics is the engine's lock-free metrics recorder.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a recorder for the given configuration. A disabled
// configuration yields nil, which every Metrics method accepts.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
