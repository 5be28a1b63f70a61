package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"golang.org/x/sync/errgroup"

	"github.com/minhvu/pushrelay/internal/config"
	"github.com/minhvu/pushrelay/internal/dispatch"
	"github.com/minhvu/pushrelay/internal/handler"
	"github.com/minhvu/pushrelay/internal/kafka"
	"github.com/minhvu/pushrelay/internal/logger"
	"github.com/minhvu/pushrelay/internal/metrics"
	"github.com/minhvu/pushrelay/internal/push"
	"github.com/minhvu/pushrelay/internal/router"
	"github.com/minhvu/pushrelay/internal/store"
	"github.com/minhvu/pushrelay/pkg/tracing"
)

func main() {
	// Load configuration from environment variables and exit on error.
	cfg, err := config.LoadDispatcher()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize the application logger.
	logr := logger.NewLogger()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "push-dispatcher", cfg.Tracing, logr)
	if err != nil {
		logr.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// The main function owns the single, shared database connection pool.
	db, err := store.ConnectPostgres(cfg.DB)
	if err != nil {
		logr.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	recordStore := store.NewPostgresStore(db)

	transport := push.NewHTTPTransport(
		cfg.Push.Endpoint,
		cfg.Push.APIKey,
		&http.Client{Timeout: cfg.Push.Timeout},
		logr,
	)

	dispatcher := dispatch.New(recordStore, transport, logr)

	// Setup Kafka consumer group with a shared configuration.
	saramaCfg := sarama.NewConfig()
	saramaCfg.Version = sarama.V2_1_0_0
	saramaCfg.Consumer.Return.Errors = true
	consumerGroup, err := sarama.NewConsumerGroup(
		cfg.Kafka.Brokers,
		cfg.Kafka.ConsumerGroup,
		saramaCfg,
	)
	if err != nil {
		logr.Error("failed to create Kafka consumer group", "error", err)
		os.Exit(1)
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Topic, consumerGroup, dispatcher, logr)

	healthHandler := handler.NewHealthHandler(recordStore, logr)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.NewRouter(healthHandler),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logr.Info("Starting health server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logr.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Error("Dispatcher stopped with error", "error", err)
		os.Exit(1)
	}
	logr.Info("Service shut down gracefully")
}
