// Package otel exposes engine counters as OpenTelemetry observable
// instruments read from MetricsSnapshot on every collection.
package otel
