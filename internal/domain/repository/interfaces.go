package repository

import (
	"context"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

// ResultPublisher ships computed analyses to downstream consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, res *models.AnalysisResult) error
}

// Notifier posts a recommendation to an outbound messaging endpoint.
type Notifier interface {
	Notify(ctx context.Context, res *models.AnalysisResult) error
}

// AnalysisCache stores computed results keyed by symbol, timeframe and day.
// A ttl <= 0 means the store's default expiry.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*models.AnalysisResult, bool, error)
	Set(ctx context.Context, key string, res *models.AnalysisResult, ttl time.Duration) error
}

type Metrics interface {
	RecordAnalysis(timeframe string, label string)
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	RecordBullishProbability(symbol string, p float64)
	RecordLatency(op string, seconds float64)
}
