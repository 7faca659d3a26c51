// Package storage provides the key-value persistence used for bookmarks
// and reviews. Every backend behaves like a browser's local storage:
// string keys, string values, no expiry.
package storage

import (
	"context"
	"sort"
)

type Storage interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
