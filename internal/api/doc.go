// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /healthz and /readyz for probes, GET /metrics for Prometheus.
//   - /v1/{lang}/... for progress, active lists, taps, and custom
//     supplications within one language partition.
//   - /v1/settings/... for user preferences.
//   - /v1/{lang}/advice and /v1/advice/current for the advice rotation.
package api
