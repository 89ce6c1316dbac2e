package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/config"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/bootstrap"
	cartservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/remote"
	catalogservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/events"
	sessionservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/shutdown"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront-api"

func main() {
	if err := run(); err != nil {
		slog.Error("storefront api stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Service:   serviceName,
		Env:       cfg.App.Environment,
		Level:     cfg.App.LogLevel,
		AddSource: true,
	})
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	sched := storage.NewDebounced(cfg.Storage.Debounce, log)

	client := remote.NewClient(cfg.Products.BaseURL, remote.Options{
		Timeout: cfg.Products.Timeout,
		RPS:     cfg.Products.RPS,
		Burst:   cfg.Products.Burst,
		Logger:  log,
	})

	catalog := catalogservice.NewCatalogStore(ctx, catalogservice.Deps{
		Remote:    client,
		Storage:   st.Backend,
		Scheduler: sched,
		Logger:    log,
	})
	cart := cartservice.NewCartStore(ctx, cartservice.Deps{
		Storage:   st.Backend,
		Scheduler: sched,
		Logger:    log,
	})

	session := sessionservice.NewService(cfg.Session.JWTSecret, cfg.Session.TTL, sessionservice.Options{
		Backend: st.Backend,
		Logger:  log,
	})
	if _, p, err := session.Restore(ctx); err == nil {
		log.Info("restored persisted session", slog.String("username", p.Username), slog.String("role", p.Role))
	}

	if st.Redis != nil && cfg.Storage.EventsChannel != "" {
		bridge := events.NewRedisBridge(st.Redis, cfg.Storage.EventsChannel, log)
		bridge.Attach(catalog, cart)
		defer bridge.Close()
	}

	// Safety net for writes still waiting on the debounce timer.
	flusher := cron.New(cron.WithSeconds())
	if _, err := flusher.AddFunc(cfg.Storage.FlushSchedule, func() { sched.Flush(context.Background()) }); err != nil {
		log.Warn("invalid flush schedule; periodic flush disabled",
			slog.String("schedule", cfg.Storage.FlushSchedule),
			slog.Any("err", err),
		)
	}
	flusher.Start()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Logger:         log,
		StorageName:    st.Name,
		Storage:        st.Backend,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Catalog:        catalog,
		Cart:           cart,
		Session:        session,
	})

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: /api/v1/events holds responses open.
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := catalog.LoadCatalog(gctx); err != nil {
			log.Warn("initial catalog load failed", slog.Any("err", err))
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
		<-flusher.Stop().Done()
		sched.Close(shutdownCtx)
		return nil
	})

	err = g.Wait()
	log.Info("bye")
	return err
}
