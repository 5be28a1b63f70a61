package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhvu/pushrelay/internal/config"
	"github.com/minhvu/pushrelay/internal/logger"
	"github.com/minhvu/pushrelay/internal/metrics"
	"github.com/minhvu/pushrelay/internal/store"
	"github.com/minhvu/pushrelay/internal/sweeper"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep immediately and exit")
	flag.Parse()

	cfg, err := config.LoadSweeper()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := logger.NewLogger()
	metrics.Init()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	db, err := store.ConnectPostgres(cfg.DB)
	if err != nil {
		logr.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sw := sweeper.New(store.NewPostgresStore(db), logr, cfg.ChunkSize, cfg.Hour, loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		deleted, err := sw.Run(ctx)
		if err != nil {
			logr.Error("Sweep failed", "deleted", deleted, "error", err)
			os.Exit(1)
		}
		fmt.Printf("deleted %d old notifications\n", deleted)
		return
	}

	if err := sw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("Sweeper stopped with error", "error", err)
		os.Exit(1)
	}
	logr.Info("Service shut down gracefully")
}
