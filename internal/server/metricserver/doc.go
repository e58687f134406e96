// Package metricserver is the HTTP side of busstate serve.
//
// Routes:
//
//	GET /metrics      Prometheus exposition (path configurable)
//	GET /healthz      liveness
//	GET /debug/state  JSON snapshot of the in-memory components
package metricserver
