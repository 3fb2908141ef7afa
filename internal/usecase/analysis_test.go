package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	"github.com/aayeshatech/SYMBOLASTRO/internal/repository"
	"github.com/aayeshatech/SYMBOLASTRO/internal/services/astro"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/cache"
	pkgkafka "github.com/aayeshatech/SYMBOLASTRO/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)

type countingAnalyzer struct {
	inner *astro.Engine
	mu    sync.Mutex
	calls int
}

func (a *countingAnalyzer) Analyze(symbol string, tf domrepo.Timeframe, anchor time.Time) (*models.AnalysisResult, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.inner.Analyze(symbol, tf, anchor)
}

func (a *countingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []*models.AnalysisResult
	fail error
}

func (p *recordingPublisher) Publish(_ context.Context, res *models.AnalysisResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, res)
	return p.fail
}

func (p *recordingPublisher) published() []*models.AnalysisResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.AnalysisResult(nil), p.got...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	n    int
	fail error
}

func (n *recordingNotifier) Notify(context.Context, *models.AnalysisResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.n++
	return n.fail
}

type fixture struct {
	uc       *AnalysisUseCase
	analyzer *countingAnalyzer
	pub      *recordingPublisher
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })

	f := &fixture{
		analyzer: &countingAnalyzer{inner: astro.NewEngine()},
		pub:      &recordingPublisher{},
		notifier: &recordingNotifier{},
	}
	f.uc = NewAnalysisUseCase(AnalysisDeps{
		Analyzer:  f.analyzer,
		Cache:     repository.NewCachedAnalyses(mem, time.Hour),
		Publisher: f.pub,
		Notifier:  f.notifier,
		Symbols:   []string{"AAPL", "MSFT"},
	})
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.uc.Wait(ctx))
}

func TestCompute_MatchesEngine(t *testing.T) {
	f := newFixture(t)

	got, err := f.uc.Compute(context.Background(), "aapl", "Daily")
	require.NoError(t, err)

	want, err := astro.NewEngine().Analyze("AAPL", domrepo.TFDaily, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	f.drain(t)
}

func TestCompute_DefaultsToDaily(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Compute(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, "daily", res.Timeframe)
	assert.Len(t, res.Probabilities, 7)
	f.drain(t)
}

func TestCompute_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Compute(context.Background(), "   ", "daily")
	assert.ErrorIs(t, err, models.ErrEmptySymbol)

	_, err = f.uc.Compute(context.Background(), "AAPL", "hourly")
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)

	assert.Equal(t, 0, f.analyzer.count())
	assert.Empty(t, f.pub.published())
}

func TestCompute_CachesPerDayAndPublishesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Compute(ctx, "AAPL", "weekly")
	require.NoError(t, err)

	f.uc.now = func() time.Time { return fixedNow.Add(3 * time.Hour) }
	second, err := f.uc.Compute(ctx, "AAPL", "weekly")
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, 1, f.analyzer.count())
	assert.Equal(t, first, second)
	assert.Len(t, f.pub.published(), 1)
	assert.Equal(t, "AAPL", f.pub.published()[0].Symbol)
}

func TestCompute_ShortCacheTTLStillDeliversOncePerDay(t *testing.T) {
	clock := fixedNow
	now := func() time.Time { return clock }
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0), cache.WithMemoryClock(now))
	t.Cleanup(func() { _ = mem.Close() })

	f := &fixture{
		analyzer: &countingAnalyzer{inner: astro.NewEngine()},
		pub:      &recordingPublisher{},
		notifier: &recordingNotifier{},
	}
	f.uc = NewAnalysisUseCase(AnalysisDeps{
		Analyzer:  f.analyzer,
		Cache:     repository.NewCachedAnalyses(mem, 5*time.Minute),
		Publisher: f.pub,
		Notifier:  f.notifier,
	})
	f.uc.now = now
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := f.uc.Compute(ctx, "AAPL", "daily")
		require.NoError(t, err)
		clock = clock.Add(6 * time.Minute)
	}
	f.drain(t)

	assert.Equal(t, 1, f.analyzer.count())
	assert.Len(t, f.pub.published(), 1)
	assert.Equal(t, 1, f.notifier.n)

	// The next UTC day is a new result and is delivered again.
	clock = time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC)
	_, err := f.uc.Compute(ctx, "AAPL", "daily")
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, 2, f.analyzer.count())
	assert.Len(t, f.pub.published(), 2)
	assert.Equal(t, 2, f.notifier.n)
}

func TestComputeAsOf_OtherDaysAreNotDelivered(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ComputeAsOf(context.Background(), "AAPL", "daily", fixedNow.AddDate(0, 0, -3))
	require.NoError(t, err)
	_, err = f.uc.ComputeAsOf(context.Background(), "AAPL", "daily", fixedNow.AddDate(0, 0, 2))
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, 2, f.analyzer.count())
	assert.Empty(t, f.pub.published())
	assert.Equal(t, 0, f.notifier.n)
}

func TestComputeAsOf_DifferentDaysAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.uc.ComputeAsOf(ctx, "MSFT", "daily", fixedNow)
	require.NoError(t, err)
	b, err := f.uc.ComputeAsOf(ctx, "MSFT", "daily", fixedNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, 2, f.analyzer.count())
	assert.NotEqual(t, a.GeneratedFor, b.GeneratedFor)
}

func TestCompute_FanOutFailuresDoNotAffectResult(t *testing.T) {
	f := newFixture(t)
	f.pub.fail = errors.New("kafka down")
	f.notifier.fail = errors.New("webhook down")

	res, err := f.uc.Compute(context.Background(), "TSLA", "monthly")
	require.NoError(t, err)
	assert.Len(t, res.PriceData, 90)
	f.drain(t)
	assert.Equal(t, 1, f.notifier.n)
}

func TestCacheKey(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	at := time.Date(2024, 3, 16, 2, 0, 0, 0, loc)
	assert.Equal(t, "analysis:AAPL:intraday:2024-03-15", CacheKey("AAPL", domrepo.TFIntraday, at))
}

func TestSymbolsReturnsCopy(t *testing.T) {
	f := newFixture(t)
	s := f.uc.Symbols()
	s[0] = "X"
	assert.Equal(t, []string{"AAPL", "MSFT"}, f.uc.Symbols())
}

func TestAnalysisRequestHandler(t *testing.T) {
	f := newFixture(t)
	h := NewAnalysisRequestHandler("astro.analysis.requests", f.uc, nil)
	assert.Equal(t, "astro.analysis.requests", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"googl","timeframe":"intraday"}`)))
	f.drain(t)
	pub := f.pub.published()
	require.Len(t, pub, 1)
	assert.Equal(t, "GOOGL", pub[0].Symbol)
	assert.Len(t, pub[0].PriceData, 28)

	assert.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"","timeframe":"daily"}`)), "invalid requests are dropped")
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL","timeframe":"yearly"}`)))

	err := h.Handle(context.Background(), []byte(`{not json`))
	assert.True(t, pkgkafka.IsPermanent(err))
}
