package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/GoSim-25-26J-441/go-storefront-backend/config"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/shutdown"
)

const usage = `usage: worker <command>

commands:
  reset-catalog   replace the stored catalog with the products API listing
  clear-cart      empty the stored cart
  dump <key>      print the stored value of catalog, cart or authToken
  watch           print store changes published on the events channel (redis only)`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(logger.Options{
		Service: "storefront-worker",
		Env:     cfg.App.Environment,
		Level:   cfg.App.LogLevel,
		Output:  os.Stderr,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	w := &worker{cfg: cfg, log: lg, out: os.Stdout}

	switch os.Args[1] {
	case "reset-catalog":
		err = w.ResetCatalog(ctx)
	case "clear-cart":
		err = w.ClearCart(ctx)
	case "dump":
		if len(os.Args) < 3 {
			log.Fatal("usage: worker dump <key>")
		}
		err = w.Dump(ctx, os.Args[2])
	case "watch":
		err = w.Watch(ctx)
	default:
		err = fmt.Errorf("unknown command: %s\n%s", os.Args[1], usage)
	}

	if err != nil {
		lg.Error("worker failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}
