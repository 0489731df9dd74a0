// Package metrics provides request and export metrics for scholarsite.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default so callers never check for nil; PrometheusRecorder is swapped in
// when metrics.enabled is set, and HTTPHandler exposes its registry.
package metrics
