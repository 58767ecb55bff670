package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	zerocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/syncx"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
)

// Backend is the narrow slice of the go-zero cache surface the store needs.
// Satisfied by cache.Cache; tests plug in an in-memory fake.
type Backend interface {
	GetCtx(ctx context.Context, key string, val any) error
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
	DelCtx(ctx context.Context, keys ...string) error
	IsNotFound(err error) bool
}

var _ Backend = zerocache.Cache(nil)

// Store implements engine.Cache over Redis with per-category TTLs. Backend
// failures degrade to misses: a broken Redis slows trades down, it never
// blocks them.
type Store struct {
	backend Backend
	ttls    TTLSet
	flight  syncx.SingleFlight
}

var _ engine.Cache = (*Store)(nil)

// NewStore wires the cache store. A nil backend yields a store where every
// read misses and every write is dropped.
func NewStore(backend Backend, ttls TTLSet) *Store {
	return &Store{backend: backend, ttls: ttls, flight: syncx.NewSingleFlight()}
}

// Get implements engine.Cache.
func (s *Store) Get(ctx context.Context, category engine.Category, key string, val any) bool {
	if s.backend == nil {
		return false
	}
	cacheKey := CategoryKey(category, key)
	if err := s.backend.GetCtx(ctx, cacheKey, val); err != nil {
		if !s.backend.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("cache: get %s: %v", cacheKey, err)
		}
		return false
	}
	return true
}

// Set implements engine.Cache.
func (s *Store) Set(ctx context.Context, category engine.Category, key string, val any, ttl ...time.Duration) {
	if s.backend == nil {
		return
	}
	expire := CategoryTTL(s.ttls, category)
	if len(ttl) > 0 && ttl[0] > 0 {
		expire = ttl[0]
	}
	if expire <= 0 {
		return
	}
	cacheKey := CategoryKey(category, key)
	if err := s.backend.SetWithExpireCtx(ctx, cacheKey, val, expire); err != nil {
		logx.WithContext(ctx).Errorf("cache: set %s: %v", cacheKey, err)
	}
}

// GetOrSet implements engine.Cache. Concurrent callers for the same key share
// one producer invocation; the shared result travels as JSON so every caller
// gets its own copy.
func (s *Store) GetOrSet(ctx context.Context, category engine.Category, key string, val any, produce func(val any) error) error {
	if s.Get(ctx, category, key, val) {
		return nil
	}

	out, err := s.flight.Do(CategoryKey(category, key), func() (any, error) {
		if err := produce(val); err != nil {
			return nil, err
		}
		s.Set(ctx, category, key, val)
		data, merr := json.Marshal(val)
		if merr != nil {
			return nil, merr
		}
		return json.RawMessage(data), nil
	})
	if err != nil {
		return err
	}
	if raw, ok := out.(json.RawMessage); ok {
		return json.Unmarshal(raw, val)
	}
	return nil
}

// Invalidate implements engine.Cache.
func (s *Store) Invalidate(ctx context.Context, category engine.Category, key string) {
	s.InvalidateMany(ctx, []engine.CategoryKey{{Category: category, Key: key}})
}

// InvalidateMany implements engine.Cache. Deletion is best effort; entries
// that survive a backend error age out through their TTL.
func (s *Store) InvalidateMany(ctx context.Context, keys []engine.CategoryKey) {
	if s.backend == nil || len(keys) == 0 {
		return
	}
	cacheKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		cacheKeys = append(cacheKeys, CategoryKey(k.Category, k.Key))
	}
	if err := s.backend.DelCtx(ctx, cacheKeys...); err != nil {
		logx.WithContext(ctx).Errorf("cache: invalidate %v: %v", cacheKeys, err)
	}
}
