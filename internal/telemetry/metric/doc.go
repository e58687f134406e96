// Package metric exposes busstate metrics in Prometheus format.
//
//   - prometheus.go: the registry, soak counters and the HTTP handler
//   - collector.go: a collector that samples container sizes at scrape time
//
// Container sizes are read through the one-shot helpers of each
// component, so a scrape takes one short read scope per gauge and never
// holds a lock across the whole exposition.
package metric
