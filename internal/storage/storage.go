// Package storage defines the blob store boundary used by the pipeline.
// The pipeline depends on nothing beyond these three operations.
package storage

import "context"

// Store is a key-value blob store.
type Store interface {
	// Get reads the blob at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes data to the blob at key, replacing any existing content.
	Put(ctx context.Context, key string, data []byte) error

	// List returns the keys under prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}
