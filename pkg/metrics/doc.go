// Package metrics exposes Prometheus collectors for quota decisions, webhook
// processing, provider verification fallbacks and HTTP traffic.
package metrics
