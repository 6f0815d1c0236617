// Package analysis serves the symptom analysis endpoints. Requests are
// validated, checked against the user's plan and daily quota, and answered
// with the upstream analysis verbatim.
package analysis
