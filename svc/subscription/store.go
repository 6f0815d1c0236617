package subscription

import "context"

// Store persists live subscription records and their history.
// Implementations keep at most one live record per user.
type Store interface {
	// Get returns the live record of userID or ErrNotFound.
	Get(ctx context.Context, userID string) (*Record, error)
	// FindBySubscriptionID returns the live record that references the
	// provider subscription or ErrNotFound.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error)
	// Upsert writes rec as the user's live record. When a live record with
	// a different SubscriptionID exists, it is archived first.
	// CreatedAt is kept from the existing record; UpdatedAt is set by the store.
	Upsert(ctx context.Context, rec Record) error
	// Delete archives the live record with DeletedAt set and removes it.
	// Deleting a missing record is not an error.
	Delete(ctx context.Context, userID string) error
}
