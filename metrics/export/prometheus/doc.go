// Package prometheus renders originauth metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts an [originauth.Engine] and exposes an
// [net/http.Handler] that renders all engine counters and histograms.
// Counter names are prefixed originauth_*_total; the single histogram is
// originauth_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
