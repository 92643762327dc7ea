// Package reload swaps a freshly built index into a running search server
// when the indexer announces one.
package reload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

// Reloader loads the index stored in a directory.
type Reloader interface {
	Reload(dir string) error
}

// Invalidator drops cached results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Watcher reacts to index-complete events.
type Watcher struct {
	reloader   Reloader
	cache      Invalidator
	defaultDir string
	retry      resilience.RetryConfig
	logger     *slog.Logger
}

// New creates a Watcher. Events without a directory reload defaultDir. A nil
// cache skips invalidation.
func New(r Reloader, cache Invalidator, defaultDir string) *Watcher {
	return &Watcher{
		reloader:   r,
		cache:      cache,
		defaultDir: defaultDir,
		retry:      resilience.RetryConfig{MaxAttempts: 3},
		logger:     slog.Default().With("component", "index-reload"),
	}
}

// Handle reloads the announced index and then clears the cache, so no result
// computed against the old index outlives the swap. A missing index is not
// retried.
func (w *Watcher) Handle(ctx context.Context, ev kafka.IndexCompleteEvent) error {
	dir := ev.Dir
	if dir == "" {
		dir = w.defaultDir
	}
	w.logger.Info("index completion received", "event_id", ev.EventID, "dir", dir, "documents", ev.Documents)

	err := resilience.Retry(ctx, "reload-index", w.retry, func(context.Context) error {
		err := w.reloader.Reload(dir)
		if errors.Is(err, apperrors.ErrIndexNotFound) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("reloading %s: %w", dir, err)
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidating cache after reload: %w", err)
		}
	}
	w.logger.Info("index reloaded", "event_id", ev.EventID, "dir", dir)
	return nil
}

// Handler adapts the Watcher to a Kafka consumer.
func (w *Watcher) Handler() kafka.MessageHandler {
	return kafka.IndexCompleteHandler(w.Handle)
}
