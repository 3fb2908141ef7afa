package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string    `json:"symbol"`
	Prices []float64 `json:"prices"`
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]MemoryOption{WithMemoryCleanup(0), WithMemoryClock(clk.Now)}, opts...)
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clk
}

func TestMemoryCache_RoundTripReturnsCopy(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	in := payload{Symbol: "AAPL", Prices: []float64{100, 101.5}}
	require.NoError(t, mc.Set(ctx, "k", in, time.Minute))

	got, err := GetTyped[payload](ctx, mc, "k")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	got.Prices[0] = -1
	again, err := GetTyped[payload](ctx, mc, "k")
	require.NoError(t, err)
	assert.Equal(t, 100.0, again.Prices[0])
}

func TestMemoryCache_Miss(t *testing.T) {
	mc, _ := newTestMemory(t)
	var p payload
	assert.ErrorIs(t, mc.Get(context.Background(), "absent", &p), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(time.Minute)
	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", "v", 0))
	clk.Advance(365 * 24 * time.Hour)

	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Set(ctx, "b", 2, 0))

	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))

	require.NoError(t, mc.Set(ctx, "c", 3, 0))
	assert.Equal(t, 2, mc.Len())

	assert.NoError(t, mc.Get(ctx, "a", &n))
	assert.ErrorIs(t, mc.Get(ctx, "b", &n), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &n))
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	require.NoError(t, mc.Set(ctx, "b", 3, 0))

	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))
	require.NoError(t, mc.Get(ctx, "b", &n))
	assert.Equal(t, 3, n)
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	require.NoError(t, mc.Delete(ctx, "a", "b"))
	assert.Equal(t, 0, mc.Len())
}

func TestLayeredCache_PromotesRemoteHits(t *testing.T) {
	ctx := context.Background()
	remote, _ := newTestMemory(t)
	lc := NewLayeredCache(remote, WithLayeredMemorySize(10))
	t.Cleanup(func() { _ = lc.memCache.Close() })

	require.NoError(t, remote.Set(ctx, "k", payload{Symbol: "MSFT"}, 0))

	got, err := GetTyped[payload](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", got.Symbol)

	require.NoError(t, remote.Delete(ctx, "k"))
	got, err = GetTyped[payload](ctx, lc, "k")
	require.NoError(t, err, "served from L1")
	assert.Equal(t, "MSFT", got.Symbol)
}

func TestLayeredCache_WriteThroughAndDelete(t *testing.T) {
	ctx := context.Background()
	remote, _ := newTestMemory(t)
	lc := NewLayeredCache(remote)
	t.Cleanup(func() { _ = lc.memCache.Close() })

	require.NoError(t, lc.Set(ctx, "k", "v", time.Hour))

	var s string
	require.NoError(t, remote.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "analysis:AAPL:daily:2024-01-02", GenerateKeyWithParams("analysis", "AAPL", "daily", "2024-01-02"))
}
