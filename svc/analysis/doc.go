// Package analysis proxies symptom analyses to the upstream analysis API.
//
// Client posts requests to {ANALYSIS_API_URL}/analyze/traditional and
// /analyze/body-based and accepts the answer either as plain JSON or as JSON
// inside a markdown code fence. Service puts the plan gate and the daily
// quota in front of it: body analyses need a tier with body analysis, and
// every analysis consumes one unit through usage.Limiter before the upstream
// call is made.
package analysis
