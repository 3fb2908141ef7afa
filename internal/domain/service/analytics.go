package service

import (
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
)

// Analyzer runs the transit scoring pipeline for one symbol and timeframe.
// Implementations must be deterministic for a given (symbol, timeframe, anchor).
type Analyzer interface {
	Analyze(symbol string, tf domrepo.Timeframe, anchor time.Time) (*models.AnalysisResult, error)
}
