package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/logger"
	"github.com/rudransh-shrivastava/peer-index/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	log := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	srv, err := tracker.NewServer(cfg, log)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Info("Indexing server shut down")
}
