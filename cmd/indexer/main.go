package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	docsDir := flag.String("docs", "", "document directory (overrides indexer.docsDir)")
	outputDir := flag.String("out", "", "index output directory (overrides indexer.outputDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *docsDir != "" {
		cfg.Indexer.DocsDir = *docsDir
	}
	if *outputDir != "" {
		cfg.Indexer.OutputDir = *outputDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer",
		"docs_dir", cfg.Indexer.DocsDir,
		"output_dir", cfg.Indexer.OutputDir,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	if err := run(ctx, cfg, m); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer finished")
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	res, err := indexer.NewBuilder(cfg.Indexer, indexer.WithMetrics(m)).Build(ctx, cfg.Indexer.DocsDir)
	if err != nil {
		return err
	}
	manifest, err := res.Save(cfg.Indexer.OutputDir)
	if err != nil {
		return err
	}

	s := res.Stats
	slog.Info("index statistics",
		"documents", s.Documents,
		"skipped", s.Skipped,
		"distinct_terms", s.DistinctTerms,
		"avg_distinct_terms_per_doc", fmt.Sprintf("%.2f", s.AvgDistinctTerms),
		"max_posting_length", s.MaxPostingLength,
		"collection_bytes", s.CollectionBytes,
		"biwords_kept", manifest.Biwords,
		"biwords_pruned", manifest.PrunedBiwords,
		"positional_terms", manifest.PositionalKeys,
		"duration", s.Duration,
	)
	for _, name := range res.Skipped {
		slog.Warn("document skipped", "name", name)
	}

	if !cfg.Kafka.Enabled() {
		return nil
	}
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()
	ev := kafka.NewIndexCompleteEvent(manifest.Dir, manifest.Documents, manifest.Terms, manifest.Biwords)
	err = resilience.Retry(ctx, "publish-index-complete", resilience.RetryConfig{MaxAttempts: 5}, func(ctx context.Context) error {
		return producer.PublishIndexComplete(ctx, ev)
	})
	if err != nil {
		return fmt.Errorf("announcing index: %w", err)
	}
	slog.Info("index completion published", "topic", cfg.Kafka.Topics.IndexComplete, "event_id", ev.EventID)
	return nil
}
