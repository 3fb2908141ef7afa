package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/cache"
)

// CachedAnalyses stores results in a cache.Service. ttl is used when the
// caller does not pass one.
type CachedAnalyses struct {
	svc cache.Service
	ttl time.Duration
}

func NewCachedAnalyses(svc cache.Service, ttl time.Duration) *CachedAnalyses {
	return &CachedAnalyses{svc: svc, ttl: ttl}
}

func (c *CachedAnalyses) Get(ctx context.Context, key string) (*models.AnalysisResult, bool, error) {
	var res models.AnalysisResult
	if err := c.svc.Get(ctx, key, &res); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &res, true, nil
}

func (c *CachedAnalyses) Set(ctx context.Context, key string, res *models.AnalysisResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.svc.Set(ctx, key, res, ttl)
}

var _ repository.AnalysisCache = (*CachedAnalyses)(nil)
