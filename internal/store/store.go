// Package store provides durable key-value storage and the coaching progress
// store built on top of it.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KV is the durable key-value contract the coaching state is persisted to.
type KV interface {
	// Get returns the value stored under key. found is false when the key
	// has never been set.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
