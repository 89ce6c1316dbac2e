// Package storage is the persistence side of the storefront stores: a small
// key-value Backend abstraction, a Collection that reads and writes JSON
// arrays under one key, and the write scheduling that keeps saves off the
// mutation path.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when a key has never been written or
// has been deleted.
var ErrNotFound = errors.New("storage key not found")

// Keys owned by the storefront stores. Each key belongs to exactly one store.
const (
	KeyCatalog = "catalog"
	KeyCart    = "cart"
	KeySession = "authToken"
)

// Backend is a byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
