package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/GoSim-25-26J-441/go-storefront-backend/config"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/bootstrap"
	cartservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/remote"
	catalogservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/events"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
)

type worker struct {
	cfg *config.Config
	log *slog.Logger
	out io.Writer
}

// ResetCatalog runs the catalog store's reset against the configured backend.
// Writes go through storage.Immediate so they land before the process exits.
func (w *worker) ResetCatalog(ctx context.Context) error {
	st, err := bootstrap.OpenStorage(ctx, w.cfg, w.log)
	if err != nil {
		return err
	}
	defer st.Close()

	client := remote.NewClient(w.cfg.Products.BaseURL, remote.Options{
		Timeout: w.cfg.Products.Timeout,
		RPS:     w.cfg.Products.RPS,
		Burst:   w.cfg.Products.Burst,
		Logger:  w.log,
	})
	store := catalogservice.NewCatalogStore(ctx, catalogservice.Deps{
		Remote:    client,
		Storage:   st.Backend,
		Scheduler: storage.Immediate{},
		Logger:    w.log,
	})
	if err := store.ResetToRemote(ctx); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "catalog reset: %d products\n", len(store.Products()))
	return nil
}

func (w *worker) ClearCart(ctx context.Context) error {
	st, err := bootstrap.OpenStorage(ctx, w.cfg, w.log)
	if err != nil {
		return err
	}
	defer st.Close()

	store := cartservice.NewCartStore(ctx, cartservice.Deps{
		Storage:   st.Backend,
		Scheduler: storage.Immediate{},
		Logger:    w.log,
	})
	n := store.Count()
	store.Clear()

	fmt.Fprintf(w.out, "cart cleared: %d units removed\n", n)
	return nil
}

// Dump prints the raw stored value, indented when it is JSON.
func (w *worker) Dump(ctx context.Context, key string) error {
	st, err := bootstrap.OpenStorage(ctx, w.cfg, w.log)
	if err != nil {
		return err
	}
	defer st.Close()

	raw, err := st.Backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(w.out, "%s: not set\n", key)
		return nil
	}
	if err != nil {
		return err
	}

	var v any
	if json.Unmarshal(raw, &v) == nil {
		pretty, _ := json.MarshalIndent(v, "", "  ")
		raw = pretty
	}
	fmt.Fprintf(w.out, "%s\n", raw)
	return nil
}

func (w *worker) Watch(ctx context.Context) error {
	client, err := bootstrap.OpenRedis(ctx, w.cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	bridge := events.NewRedisBridge(client, w.cfg.Storage.EventsChannel, w.log)
	return bridge.Listen(ctx, func(c events.Change) {
		fmt.Fprintf(w.out, "%s %s.%s id=%d\n", c.OccurredAt.Format("15:04:05.000"), c.Store, c.Op, c.EntityID)
	})
}
