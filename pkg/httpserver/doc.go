// Package httpserver runs the service's HTTP handler with graceful shutdown.
//
// Server listens until the context passed to Run is cancelled or the process
// receives SIGINT/SIGTERM, then drains in-flight requests within the
// configured shutdown timeout and runs the registered stop hooks.
// HealthCheckHandler provides liveness and readiness endpoints.
package httpserver
