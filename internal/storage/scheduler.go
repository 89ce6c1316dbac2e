package storage

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
)

// WriteFunc performs one persistence write.
type WriteFunc func(ctx context.Context)

// Scheduler decides when persistence writes run. Stores hand it the write for
// their latest snapshot and move on; correctness never depends on when (or how
// often) the write actually happens, only that the last one scheduled for a key
// is the one that lands.
type Scheduler interface {
	Schedule(key string, write WriteFunc)
	Flush(ctx context.Context)
	Close(ctx context.Context)
}

// Immediate runs every write synchronously on the caller's goroutine.
type Immediate struct{}

func (Immediate) Schedule(_ string, write WriteFunc) { write(context.Background()) }
func (Immediate) Flush(context.Context)              {}
func (Immediate) Close(context.Context)              {}

const defaultWriteTimeout = 5 * time.Second

// Debounced coalesces writes per key on a trailing edge: scheduling a key that
// already has a pending write replaces that write and restarts its timer.
// After Close every Schedule runs immediately.
type Debounced struct {
	delay        time.Duration
	writeTimeout time.Duration
	log          *slog.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingWrite
	closed  bool

	// writeMu serialises writes; written tracks the newest sequence that
	// reached the backend per key so a stale write never lands last.
	writeMu sync.Mutex
	written map[string]uint64
}

type pendingWrite struct {
	seq   uint64
	write WriteFunc
	timer *time.Timer
}

func NewDebounced(delay time.Duration, log *slog.Logger) *Debounced {
	return &Debounced{
		delay:        delay,
		writeTimeout: defaultWriteTimeout,
		log:          logger.OrDefault(log),
		pending:      map[string]*pendingWrite{},
		written:      map[string]uint64{},
	}
}

func (d *Debounced) Schedule(key string, write WriteFunc) {
	d.mu.Lock()
	d.seq++
	seq := d.seq

	if d.closed {
		d.mu.Unlock()
		d.run(context.Background(), key, seq, write)
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	p := &pendingWrite{seq: seq, write: write}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(key, seq) })
	d.pending[key] = p
	d.mu.Unlock()
}

// Pending reports how many keys are waiting for their trailing write.
func (d *Debounced) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debounced) Flush(ctx context.Context) {
	d.mu.Lock()
	batch := make(map[string]*pendingWrite, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		batch[key] = p
	}
	d.pending = map[string]*pendingWrite{}
	d.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for key := range batch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p := batch[key]
		d.run(ctx, key, p.seq, p.write)
	}
	if len(keys) > 0 {
		d.log.Debug("flushed pending writes", slog.Int("keys", len(keys)))
	}
}

func (d *Debounced) Close(ctx context.Context) {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Flush(ctx)
}

func (d *Debounced) fire(key string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()
	d.run(ctx, key, seq, p.write)
}

func (d *Debounced) run(ctx context.Context, key string, seq uint64, write WriteFunc) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if seq < d.written[key] {
		return
	}
	d.written[key] = seq

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("persistence write panicked", slog.String("storage_key", key), slog.Any("panic", r))
		}
	}()
	write(ctx)
}
