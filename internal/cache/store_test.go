package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/config"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
)

var errFakeNotFound = errors.New("fake: not found")

type fakeBackend struct {
	mu     sync.Mutex
	values map[string][]byte
	broken bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: make(map[string][]byte)}
}

func (f *fakeBackend) GetCtx(ctx context.Context, key string, val any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("fake: backend down")
	}
	data, ok := f.values[key]
	if !ok {
		return errFakeNotFound
	}
	return json.Unmarshal(data, val)
}

func (f *fakeBackend) SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("fake: backend down")
	}
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.values[key] = data
	return nil
}

func (f *fakeBackend) DelCtx(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("fake: backend down")
	}
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeBackend) IsNotFound(err error) bool {
	return errors.Is(err, errFakeNotFound)
}

func testTTLs() TTLSet {
	return NewTTLSet(config.CacheTTL{Short: 10, Medium: 60, Long: 300})
}

func TestGetOrSetProducesOnceThenHits(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(backend, testTTLs())
	ctx := context.Background()

	var produced int
	load := func(val any) error {
		produced++
		*val.(*float64) = 4.2
		return nil
	}

	var balance float64
	require.NoError(t, store.GetOrSet(ctx, engine.CacheBalance, "0xabc", &balance, load))
	assert.Equal(t, 4.2, balance)

	balance = 0
	require.NoError(t, store.GetOrSet(ctx, engine.CacheBalance, "0xabc", &balance, load))
	assert.Equal(t, 4.2, balance)
	assert.Equal(t, 1, produced)
}

func TestGetOrSetSharesOneProducerAcrossGoroutines(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(backend, testTTLs())
	ctx := context.Background()

	var produced int64
	gate := make(chan struct{})
	load := func(val any) error {
		atomic.AddInt64(&produced, 1)
		<-gate
		*val.(*float64) = 7.0
		return nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]float64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.GetOrSet(ctx, engine.CacheBalance, "0xshared", &results[i], load))
		}(i)
	}
	// Let every goroutine pile up behind the single flight before releasing.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&produced))
	for i := 0; i < workers; i++ {
		assert.Equal(t, 7.0, results[i])
	}
}

func TestBrokenBackendDegradesToProducer(t *testing.T) {
	backend := newFakeBackend()
	backend.broken = true
	store := NewStore(backend, testTTLs())
	ctx := context.Background()

	var balance float64
	err := store.GetOrSet(ctx, engine.CacheBalance, "0xabc", &balance, func(val any) error {
		*val.(*float64) = 1.5
		return nil
	})
	require.NoError(t, err, "backend failure must not surface to callers")
	assert.Equal(t, 1.5, balance)

	var out float64
	assert.False(t, store.Get(ctx, engine.CacheBalance, "0xabc", &out))
}

func TestProducerErrorPropagates(t *testing.T) {
	store := NewStore(newFakeBackend(), testTTLs())
	boom := errors.New("venue down")

	var balance float64
	err := store.GetOrSet(context.Background(), engine.CacheBalance, "0xabc", &balance, func(val any) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestInvalidateManyRemovesEntries(t *testing.T) {
	backend := newFakeBackend()
	store := NewStore(backend, testTTLs())
	ctx := context.Background()

	store.Set(ctx, engine.CacheBalance, "0xabc", 1.0)
	store.Set(ctx, engine.CachePortfolio, "u1", map[string]float64{"0xdef": 2})

	store.InvalidateMany(ctx, []engine.CategoryKey{
		{Category: engine.CacheBalance, Key: "0xabc"},
		{Category: engine.CachePortfolio, Key: "u1"},
	})

	var balance float64
	assert.False(t, store.Get(ctx, engine.CacheBalance, "0xabc", &balance))
	assert.Empty(t, backend.values)
}

func TestNilBackendIsInert(t *testing.T) {
	store := NewStore(nil, testTTLs())
	ctx := context.Background()

	store.Set(ctx, engine.CacheBalance, "0xabc", 1.0)
	var balance float64
	assert.False(t, store.Get(ctx, engine.CacheBalance, "0xabc", &balance))

	err := store.GetOrSet(ctx, engine.CacheBalance, "0xabc", &balance, func(val any) error {
		*val.(*float64) = 9.9
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9.9, balance)
}

func TestCategoryTTLMapping(t *testing.T) {
	ttls := testTTLs()
	assert.Equal(t, 10*time.Second, CategoryTTL(ttls, engine.CacheBalance))
	assert.Equal(t, time.Minute, CategoryTTL(ttls, engine.CacheAssetMeta))
	assert.Equal(t, 5*time.Minute, CategoryTTL(ttls, engine.CacheAccount))
	assert.Equal(t, 10*time.Second, CategoryTTL(ttls, engine.Category("mystery")))
}

func TestKeyFormatting(t *testing.T) {
	assert.Equal(t, "monbot:balance:0xabc", CategoryKey(engine.CacheBalance, "0xabc"))
	assert.Equal(t, "monbot:session:u1", SessionKey("u1"))
	assert.Equal(t, "monbot:a:b", FormatCacheKey("a", " b ", ""))
}
