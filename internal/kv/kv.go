// Package kv abstracts the key/value backend: hash-per-key records, named
// sets used as secondary indexes, prefix key enumeration, and atomic batched
// writes.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key or hash field does not exist.
var ErrNotFound = errors.New("kv: not found")

// Batch queues mutations that a Store executes atomically. Queued operations
// are applied in order; either all land or none do.
type Batch interface {
	HSet(key string, fields map[string]string)
	SAdd(key string, members ...string)
	SRem(key string, members ...string)
	Del(keys ...string)
}

// Store is the backend contract. Implementations must guarantee that a
// Batch commits as one atomic unit observable by concurrent readers.
type Store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, prefix string) ([]string, error)
	Batch(ctx context.Context, fn func(b Batch) error) error
	Ping(ctx context.Context) error
	Name() string
	Close() error
}
