// Package events carries state-change notifications out of the stores.
package events

import (
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
)

// Notifier fans a value out to subscribed listeners. Publish calls every
// listener synchronously, in subscription order, on the publishing goroutine.
type Notifier[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []listener[T]
	log       *slog.Logger
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

func NewNotifier[T any](log *slog.Logger) *Notifier[T] {
	return &Notifier[T]{log: logger.OrDefault(log)}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (n *Notifier[T]) Subscribe(fn func(T)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listener[T]{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier[T]) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, l := range n.listeners {
		if l.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers v to a snapshot of the current listeners. A listener that
// panics is logged and skipped.
func (n *Notifier[T]) Publish(v T) {
	n.mu.RLock()
	snapshot := make([]listener[T], len(n.listeners))
	copy(snapshot, n.listeners)
	n.mu.RUnlock()

	for _, l := range snapshot {
		n.deliver(l, v)
	}
}

func (n *Notifier[T]) deliver(l listener[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("listener panicked", slog.Uint64("listener", l.id), slog.Any("panic", r))
		}
	}()
	l.fn(v)
}

func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
