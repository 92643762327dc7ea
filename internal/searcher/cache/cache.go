// Package cache memoizes search results in Redis, or in an in-process LRU
// when Redis is not configured or unreachable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/phrase"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

const keyPrefix = "search:"

// store is where encoded results live.
type store interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte) error
	purge(ctx context.Context) (int64, error)
	ping(ctx context.Context) error
	size() int
	name() string
}

// Stats reports cache effectiveness.
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hit_rate"`
	Entries int     `json:"entries,omitempty"`
}

// QueryCache memoizes executor results. Concurrent misses on the same key
// are computed once. Failed computations are never stored, and neither are
// results whose computation started before the last Invalidate.
type QueryCache struct {
	store   store
	closer  func() error
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64

	// mu orders stores against purges. epoch counts invalidations.
	mu    sync.RWMutex
	epoch atomic.Uint64
}

// New connects to Redis when cfg.Addr is set and falls back to a local LRU
// of cfg.LocalCapacity entries otherwise, or when Redis does not answer.
func New(ctx context.Context, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	logger := slog.Default().With("component", "query-cache")
	if cfg.Addr != "" {
		client, err := pkgredis.NewClient(ctx, cfg)
		if err == nil {
			logger.Info("using redis query cache", "addr", cfg.Addr, "ttl", cfg.CacheTTL)
			return NewRedis(client, cfg, m)
		}
		logger.Warn("redis unavailable, using local query cache", "addr", cfg.Addr, "error", err)
	}
	return NewLocal(cfg.LocalCapacity, m)
}

// NewRedis caches in Redis with the configured TTL.
func NewRedis(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	c := newCache(&redisStore{
		client:  client,
		ttl:     cfg.CacheTTL,
		breaker: resilience.NewBreaker("redis-cache", resilience.BreakerConfig{}),
	}, m)
	c.closer = client.Close
	return c
}

// NewLocal caches in process, evicting the least recently used entry once
// capacity is reached.
func NewLocal(capacity int, m *metrics.Metrics) *QueryCache {
	return newCache(newLocalStore(capacity), m)
}

func newCache(s store, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   s,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for req.
func (c *QueryCache) Get(ctx context.Context, req executor.Request) (*executor.SearchResult, bool) {
	key := BuildKey(req)
	data, found, err := c.store.get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if !found {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "query", req.Query, "mode", req.Mode, "key", key)
	return &result, true
}

// Set stores result for req.
func (c *QueryCache) Set(ctx context.Context, req executor.Request, result *executor.SearchResult) {
	c.setAt(ctx, c.epoch.Load(), req, result)
}

// setAt stores result unless the cache was invalidated after epoch.
func (c *QueryCache) setAt(ctx context.Context, epoch uint64, req executor.Request, result *executor.SearchResult) {
	key := BuildKey(req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.epoch.Load() != epoch {
		c.logger.Debug("dropping result computed before invalidation", "key", key)
		return
	}
	if err := c.store.set(ctx, key, data); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req or computes, stores and
// returns it. The boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	epoch := c.epoch.Load()
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	flight := fmt.Sprintf("%d/%s", epoch, BuildKey(req))
	val, err, _ := c.group.Do(flight, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.setAt(ctx, epoch, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result. Computations already in flight
// still return to their callers but are not stored.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch.Add(1)
	deleted, err := c.store.purge(ctx)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "backend", c.store.name(), "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since start.
func (c *QueryCache) Stats() Stats {
	s := Stats{
		Backend: c.store.name(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.store.size(),
	}
	s.Total = s.Hits + s.Misses
	if s.Total > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Total)
	}
	return s
}

// Ping checks the backend. The local backend is always reachable.
func (c *QueryCache) Ping(ctx context.Context) error {
	return c.store.ping(ctx)
}

// Close releases the Redis connection, if any.
func (c *QueryCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey hashes the mode, the query as its engine sees it and the limit.
// Queries that differ only in case or spacing share a key.
func BuildKey(req executor.Request) string {
	mode := req.Mode
	if mode == "" {
		mode = executor.ModeBoolean
	}
	raw := fmt.Sprintf("%s|%s|limit=%d", mode, normalizeQuery(mode, req.Query), req.Limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalizeQuery(mode executor.Mode, query string) string {
	switch mode {
	case executor.ModeBoolean:
		tokens := boolean.Tokenize(query)
		parts := make([]string, len(tokens))
		for i, tok := range tokens {
			parts[i] = tok.Text
		}
		return strings.Join(parts, " ")
	case executor.ModeBiword, executor.ModePositional:
		return strings.Join(phrase.Split(query), " ")
	default:
		return strings.Join(strings.Fields(strings.ToLower(query)), " ")
	}
}
