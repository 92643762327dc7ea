package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/reload"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexDir := flag.String("index", "", "index directory (overrides indexer.outputDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *indexDir != "" {
		cfg.Indexer.OutputDir = *indexDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index_dir", cfg.Indexer.OutputDir)

	m := metrics.New(nil)
	exec, err := executor.Open(cfg.Indexer.OutputDir, cfg.Search, cfg.Correction,
		executor.WithMetrics(m),
		executor.WithLoadOptions(store.Options{Strict: cfg.Indexer.StrictLoad}),
	)
	if err != nil {
		slog.Error("failed to load index", "dir", cfg.Indexer.OutputDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queryCache := cache.New(ctx, cfg.Redis, m)
	defer queryCache.Close()

	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(func() int { return exec.Stats().Documents }))
	checker.Register("cache", health.PingCheck(queryCache.Ping))

	if cfg.Kafka.Enabled() {
		watcher := reload.New(exec, queryCache, cfg.Indexer.OutputDir)
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, watcher.Handler())
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("index event consumer stopped", "error", err)
			}
		}()
		slog.Info("watching for new indexes",
			"topic", cfg.Kafka.Topics.IndexComplete,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	h := handler.New(exec, queryCache, cfg.Search)
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(h.Routes(checker),
			middleware.Recover,
			middleware.RequestID,
			middleware.Metrics(m),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
