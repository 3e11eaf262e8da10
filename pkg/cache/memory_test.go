package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "certificate:G1", []byte("one"), 30*time.Minute))

	val, ok, err := store.Get(ctx, "certificate:G1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), val)

	clock.Advance(29 * time.Minute)
	_, ok, _ = store.Get(ctx, "certificate:G1")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok, _ = store.Get(ctx, "certificate:G1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	store := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Minute))

	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	input := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", input, time.Minute))
	input[0] = 'x'

	val, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), val)
	val[0] = 'y'

	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStoreIncr(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := int64(1); i <= 3; i++ {
		n, err := store.Incr(ctx, "verifications:G1")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	require.NoError(t, store.Set(ctx, "text", []byte("abc"), 0))
	_, err := store.Incr(ctx, "text")
	assert.Error(t, err)
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Incr(ctx, "n")
		}()
	}
	wg.Wait()

	val, ok, err := store.Get(ctx, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "50", string(val))
}

func TestMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.Hit("certificate")
	m.Hit("certificate")
	m.Miss("certificate_list")
	m.Error("certificate")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("certificate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("certificate_list")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("certificate")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.Hit("x") })
	assert.Nil(t, NewMetrics(nil))
}
