// Package kv provides the persistent string-key/string-value dictionary
// the record store writes its blobs into.
package kv

import "context"

// Store is a flat dictionary of string keys to string values. Writes
// replace a whole value atomically; there is no atomicity across keys.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any prior value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key currently in the dictionary.
	Keys(ctx context.Context) ([]string, error)

	// Replace discards the entire dictionary and installs the given
	// entries in its place. Used by backup restore.
	Replace(ctx context.Context, entries map[string]string) error

	Close() error
}
