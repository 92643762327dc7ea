package cache

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	pkgredis "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

// DefaultLocalCapacity is used when no positive capacity is configured.
const DefaultLocalCapacity = 1024

// redisStore reads and writes through a breaker. While it is open every
// lookup is a miss and writes are dropped.
type redisStore struct {
	client  *pkgredis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := s.breaker.Do(func() error {
		var err error
		data, found, err = s.client.Get(ctx, key)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, false, nil
	}
	return data, found, err
}

func (s *redisStore) set(ctx context.Context, key string, value []byte) error {
	err := s.breaker.Do(func() error {
		return s.client.Set(ctx, key, value, s.ttl)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil
	}
	return err
}

func (s *redisStore) purge(ctx context.Context) (int64, error) {
	return s.client.DeletePrefix(ctx, keyPrefix)
}

func (s *redisStore) ping(ctx context.Context) error { return s.client.Ping(ctx) }

// Redis entries are not counted.
func (s *redisStore) size() int { return 0 }

func (s *redisStore) name() string { return "redis" }

// localStore entries have no TTL; they live until evicted or purged on
// index reload.
type localStore struct {
	cache *lru.Cache[string, []byte]
}

func newLocalStore(capacity int) *localStore {
	if capacity <= 0 {
		capacity = DefaultLocalCapacity
	}
	cache, _ := lru.New[string, []byte](capacity)
	return &localStore{cache: cache}
}

func (s *localStore) get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	return v, ok, nil
}

func (s *localStore) set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, value)
	return nil
}

func (s *localStore) purge(context.Context) (int64, error) {
	n := s.cache.Len()
	s.cache.Purge()
	return int64(n), nil
}

func (s *localStore) ping(context.Context) error { return nil }

func (s *localStore) size() int { return s.cache.Len() }

func (s *localStore) name() string { return "local" }
