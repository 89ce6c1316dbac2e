package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
)

// Collection reads and writes a JSON array of T under a single key.
//
// Load never fails: a missing key, an unreachable backend or corrupt content
// all yield an empty slice. Save never fails either; errors are logged and
// dropped because the in-memory state is authoritative and the backend is
// only a cache of it.
type Collection[T any] struct {
	backend Backend
	key     string
	log     *slog.Logger
}

func NewCollection[T any](backend Backend, key string, log *slog.Logger) *Collection[T] {
	return &Collection[T]{
		backend: backend,
		key:     key,
		log:     logger.OrDefault(log).With("storage_key", key),
	}
}

func (c *Collection[T]) Key() string { return c.key }

func (c *Collection[T]) Load(ctx context.Context) []T {
	data, err := c.backend.Get(ctx, c.key)
	if errors.Is(err, ErrNotFound) {
		return []T{}
	}
	if err != nil {
		c.log.Warn("storage read failed, starting empty", slog.Any("err", err))
		return []T{}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("stored collection is corrupt, starting empty", slog.Any("err", err))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (c *Collection[T]) Save(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		c.log.Error("failed to encode collection", slog.Any("err", err))
		return
	}

	if err := c.backend.Set(ctx, c.key, data); err != nil {
		c.log.Error("storage write failed", slog.Any("err", err), slog.Int("items", len(items)))
	}
}

// Clear removes the key. Failures are logged like Save failures.
func (c *Collection[T]) Clear(ctx context.Context) {
	if err := c.backend.Delete(ctx, c.key); err != nil && !errors.Is(err, ErrNotFound) {
		c.log.Error("storage delete failed", slog.Any("err", err))
	}
}
