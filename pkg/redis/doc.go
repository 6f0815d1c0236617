// Package redis connects to the key-value store that holds the daily
// analysis counters.
//
// It wraps github.com/redis/go-redis/v9 with an environment-driven Config, a
// Connect helper that retries the initial ping, and a Healthcheck suitable
// for readiness probes. The returned *redis.Client is owned by the caller,
// which must Close it on shutdown.
package redis
