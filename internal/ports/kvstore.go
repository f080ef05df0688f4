package ports

import "context"

// KVStore is a synchronous string key-value store holding one player's records.
type KVStore interface {
	// Get returns the stored value. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set replaces the whole value stored under key.
	Set(ctx context.Context, key, value string) error

	// SetIfAbsent writes value only when key has no value yet.
	// Returns written=false when an existing value was left in place.
	SetIfAbsent(ctx context.Context, key, value string) (written bool, err error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
