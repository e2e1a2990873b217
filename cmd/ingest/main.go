// Command ingest crawls the configured seed URLs into the document index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/salaryse/assistant/bootstrap"
	"github.com/salaryse/assistant/config"
)

var force = flag.Bool("force", false, "Ingest even when the index already has chunks")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if !*force {
		return app.EnsureIndexed(ctx)
	}

	n, err := app.Ingestor.Ingest(ctx)
	if err != nil {
		return err
	}
	app.Logger.Info("stored %d chunks", n)
	return nil
}
