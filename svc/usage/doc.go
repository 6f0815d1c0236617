// Package usage enforces the daily analysis quota.
//
// Counters live under analysis:{userId}:{YYYY-MM-DD} (UTC) and expire at the
// next UTC midnight, so a new day starts from zero without cleanup. Limiter
// resolves the user's tier through a TierResolver; unlimited tiers never
// touch the counter. Consume checks and increments in one atomic store
// operation, so concurrent requests cannot overshoot the limit, and a
// rejected request does not change the counter.
package usage
