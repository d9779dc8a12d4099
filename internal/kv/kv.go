// Package kv defines the string key-value persistence used for progress and
// preferences. Values are opaque UTF-8 strings; callers own the encoding.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal durable string map.
type Store interface {
	// Get returns the last value written for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set replaces the value stored for key.
	Set(ctx context.Context, key, value string) error
}
