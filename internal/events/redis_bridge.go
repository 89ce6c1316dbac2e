package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisBridge republishes store changes on a Redis channel so other processes
// can observe them. Publishing happens inside the store's listener call, so a
// slow Redis delays the caller by at most publishTimeout.
type RedisBridge struct {
	client  *redis.Client
	channel string
	log     *slog.Logger

	mu     sync.Mutex
	unsubs []func()
}

func NewRedisBridge(client *redis.Client, channel string, log *slog.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		log:     logger.OrDefault(log).With("channel", channel),
	}
}

// Attach subscribes the bridge to every source.
func (b *RedisBridge) Attach(sources ...Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, src := range sources {
		b.unsubs = append(b.unsubs, src.Subscribe(b.publish))
	}
}

func (b *RedisBridge) publish(c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		b.log.Error("failed to encode change", slog.Any("err", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn("failed to publish change",
			slog.String("store", c.Store),
			slog.String("op", c.Op),
			slog.Any("err", err),
		)
	}
}

// Listen consumes changes published by any bridge on the channel until ctx
// is done. Malformed messages are logged and skipped.
func (b *RedisBridge) Listen(ctx context.Context, handle func(Change)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				b.log.Warn("dropping malformed change message", slog.Any("err", err))
				continue
			}
			handle(c)
		}
	}
}

// Close detaches from all sources. It does not close the Redis client.
func (b *RedisBridge) Close() {
	b.mu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
