// Package usage exposes the daily analysis quota over HTTP.
//
// GET reports the quota without changing it; POST consumes one analysis and
// answers 429 with the current totals once the day's allowance is used up.
package usage
