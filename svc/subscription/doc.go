// Package subscription keeps the stored subscription of each user in line
// with the payment provider.
//
// The provider is authoritative; the document store mirrors it. Two paths
// write the mirror and both go through the same reconcile step:
//
//   - HandleWebhook applies verified provider events (completed checkouts,
//     subscription created/updated/deleted);
//   - ReconcileCheckoutSession verifies a checkout directly, closing the gap
//     between payment and webhook delivery.
//
// EffectivePlan is the read path. It re-verifies stored subscriptions with
// the provider and degrades to the stored data when the provider is
// unreachable.
//
// Events are applied in arrival order. A late, stale event can overwrite a
// newer state; the event creation time is logged with each reconciliation.
package subscription
