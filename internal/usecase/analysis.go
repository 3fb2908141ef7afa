package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	domsvc "github.com/aayeshatech/SYMBOLASTRO/internal/domain/service"
	"github.com/aayeshatech/SYMBOLASTRO/internal/services/astro"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/cache"
	xlogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/metrics"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/util"
)

// AnalysisUseCase validates requests, serves cached results and fans
// fresh results out to the publisher and notifier. Fan-out runs in the
// background and never changes what the caller receives.
type AnalysisUseCase struct {
	analyzer  domsvc.Analyzer
	cache     domrepo.AnalysisCache
	publisher domrepo.ResultPublisher
	notifier  domrepo.Notifier
	metrics   domrepo.Metrics
	logger    *xlogger.Logger
	symbols   []string

	now        func() time.Time
	bgTimeout  time.Duration
	background sync.WaitGroup
}

// AnalysisDeps groups the collaborators of AnalysisUseCase. Cache,
// Publisher and Notifier are optional.
type AnalysisDeps struct {
	Analyzer  domsvc.Analyzer
	Cache     domrepo.AnalysisCache
	Publisher domrepo.ResultPublisher
	Notifier  domrepo.Notifier
	Metrics   domrepo.Metrics
	Logger    *xlogger.Logger
	Symbols   []string
}

func NewAnalysisUseCase(d AnalysisDeps) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		analyzer:  d.Analyzer,
		cache:     d.Cache,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		logger:    d.Logger,
		symbols:   d.Symbols,
		now:       time.Now,
		bgTimeout: 10 * time.Second,
	}
	if uc.logger == nil {
		uc.logger = xlogger.Nop()
	}
	if uc.metrics == nil {
		uc.metrics = metrics.Nop{}
	}
	return uc
}

// Symbols returns the symbols offered to clients.
func (uc *AnalysisUseCase) Symbols() []string {
	return append([]string(nil), uc.symbols...)
}

// Compute analyses symbol for timeframe anchored at the current time.
func (uc *AnalysisUseCase) Compute(ctx context.Context, symbol, timeframe string) (*models.AnalysisResult, error) {
	return uc.ComputeAsOf(ctx, symbol, timeframe, time.Time{})
}

// ComputeAsOf analyses symbol for timeframe anchored at asOf. A zero asOf
// means now. Results depend only on the UTC day of the anchor, which is
// also the cache granularity. Only results of the current UTC day are
// published and notified.
func (uc *AnalysisUseCase) ComputeAsOf(ctx context.Context, symbol, timeframe string, asOf time.Time) (*models.AnalysisResult, error) {
	sym := astro.NormalizeSymbol(symbol)
	if sym == "" {
		uc.metrics.RecordError("empty_symbol")
		return nil, models.ErrEmptySymbol
	}
	if strings.TrimSpace(timeframe) == "" {
		timeframe = string(domrepo.DefaultTimeframe())
	}
	tf, err := domrepo.ParseTimeframe(timeframe)
	if err != nil {
		uc.metrics.RecordError("invalid_timeframe")
		return nil, err
	}

	now := uc.now()
	anchor := asOf
	if anchor.IsZero() {
		anchor = now
	}
	key := CacheKey(sym, tf, anchor)
	live := util.DayKey(anchor) == util.DayKey(now)

	if uc.cache != nil {
		res, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.metrics.RecordError("cache_get")
			uc.logger.Warn("analysis cache get failed", xlogger.String("key", key), xlogger.Error(err))
		}
		uc.metrics.RecordCacheLookup(ok)
		if ok {
			return res, nil
		}
	}

	start := time.Now()
	res, err := uc.analyzer.Analyze(sym, tf, anchor)
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError("analyze")
		return nil, err
	}

	uc.metrics.RecordAnalysis(string(tf), string(res.CurrentRecommendation.Label))
	if n := len(res.Probabilities); n > 0 {
		uc.metrics.RecordBullishProbability(sym, res.Probabilities[n-1].BullishProbability)
	}

	if uc.cache != nil {
		// A result of the current day is valid until the day ends; keeping
		// it that long means it is computed and delivered once per day.
		var ttl time.Duration
		if live {
			ttl = util.StartOfDay(now).AddDate(0, 0, 1).Sub(now)
		}
		if err := uc.cache.Set(ctx, key, res, ttl); err != nil {
			uc.metrics.RecordError("cache_set")
			uc.logger.Warn("analysis cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}

	if live {
		uc.fanOut(res)
	}
	return res, nil
}

// CacheKey is analysis:SYMBOL:timeframe:YYYY-MM-DD.
func CacheKey(symbol string, tf domrepo.Timeframe, anchor time.Time) string {
	return cache.GenerateKeyWithParams("analysis", symbol, tf, util.DayKey(anchor))
}

func (uc *AnalysisUseCase) fanOut(res *models.AnalysisResult) {
	if uc.publisher == nil && uc.notifier == nil {
		return
	}
	uc.background.Add(1)
	go func() {
		defer uc.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), uc.bgTimeout)
		defer cancel()

		if uc.publisher != nil {
			start := time.Now()
			if err := uc.publisher.Publish(ctx, res); err != nil {
				uc.metrics.RecordError("publish")
				uc.logger.Error("publish analysis failed",
					xlogger.String("symbol", res.Symbol),
					xlogger.String("timeframe", res.Timeframe),
					xlogger.Error(err),
				)
			}
			uc.metrics.RecordLatency("publish", time.Since(start).Seconds())
		}
		if uc.notifier != nil {
			if err := uc.notifier.Notify(ctx, res); err != nil {
				uc.metrics.RecordError("notify")
				uc.logger.Warn("notify failed", xlogger.String("symbol", res.Symbol), xlogger.Error(err))
			}
		}
	}()
}

// Wait blocks until background fan-out finishes or ctx is done.
func (uc *AnalysisUseCase) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
