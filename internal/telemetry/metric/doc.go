// Package metric provides Prometheus metrics for gcportal.
//
// Metrics include:
//
//   - API requests by endpoint, method and outcome
//   - Request latency histogram
//   - Session state transitions
//   - Realm poll ticks and failures
//
// `gcportal-cli realm watch --metrics-addr` exposes them at /metrics.
package metric
