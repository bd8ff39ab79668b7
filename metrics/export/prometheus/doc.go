// Package prometheus renders authcore counters in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] reads [authcore.Engine.MetricsSnapshot] on each
// scrape; [PrometheusExporter.Handler] serves the result over HTTP.
//
// # What this package must NOT do
//
//   - Run its own HTTP server — callers mount the handler.
//   - Mutate engine state.
package prometheus
