package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/config"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Storage is the opened persistence backend. Redis is set only for the redis
// backend and is shared with the events bridge.
type Storage struct {
	Name    string
	Backend storage.Backend
	Redis   *redis.Client
}

func (s *Storage) Close() error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.Close()
}

// OpenStorage connects the backend named by cfg.Storage.Backend and fails fast
// when it is unreachable.
func OpenStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Storage, error) {
	log = logger.OrDefault(log)

	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		log.Warn("using in-memory storage; state is lost on restart")
		return &Storage{Name: config.BackendMemory, Backend: storage.NewMemoryBackend()}, nil

	case config.BackendRedis:
		client, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("connected to redis", slog.String("addr", cfg.Redis.Addr))
		return &Storage{
			Name:    config.BackendRedis,
			Backend: storage.NewRedisBackend(client, cfg.Storage.KeyPrefix),
			Redis:   client,
		}, nil

	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		kv := postgres.NewKVStore(db, cfg.Storage.KeyPrefix)
		if err := kv.EnsureSchema(ctx); err != nil {
			kv.Close()
			return nil, err
		}
		log.Info("connected to postgres",
			slog.String("host", cfg.Database.Host),
			slog.String("db", cfg.Database.Name),
			slog.String("driver", cfg.Database.Driver),
		)
		return &Storage{Name: config.BackendPostgres, Backend: kv}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
