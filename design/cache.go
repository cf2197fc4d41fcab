package design

import "context"

// Cache stores finished designs keyed by the demand they were built from, so
// repeated Build calls with the same demand and role pool skip the planner.
// Implementations live under store/.
type Cache interface {
	// Get returns the cached raw design text for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores the raw design text under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
