// Package prometheus renders engine counters, the login latency histogram
// and the mail queue counters in Prometheus text exposition format.
//
// The exporter does not register anything globally; callers mount Handler.
package prometheus
