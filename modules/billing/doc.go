// Package billing serves the subscription endpoints: plan status with
// optional checkout verification, hosted checkout creation and the payment
// provider webhook.
package billing
