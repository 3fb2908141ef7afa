package astro

import (
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	domsvc "github.com/aayeshatech/SYMBOLASTRO/internal/domain/service"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/util"
)

// Engine composes generator, aggregator, classifier and simulator into a
// single synchronous pipeline. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	gen *Generator
	sim *Simulator
}

func NewEngine() *Engine {
	return &Engine{gen: NewGenerator(models.Bodies), sim: NewSimulator(StartPrice)}
}

// Analyze runs the pipeline. symbol must be non-blank; tf must be one of
// the four known timeframes.
func (e *Engine) Analyze(symbol string, tf domrepo.Timeframe, anchor time.Time) (*models.AnalysisResult, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, models.ErrEmptySymbol
	}
	tf, err := domrepo.ParseTimeframe(string(tf))
	if err != nil {
		return nil, err
	}

	rng := NewRand(sym)
	periods := tf.Periods(anchor)
	transits := e.gen.Generate(rng, periods)
	series := Aggregate(transits)
	prices := e.sim.Simulate(rng, series, tf)

	return &models.AnalysisResult{
		Symbol:                sym,
		Timeframe:             string(tf),
		GeneratedFor:          util.StartOfDay(anchor),
		Transits:              transits,
		Probabilities:         series,
		PriceData:             prices,
		CurrentRecommendation: Recommend(series),
	}, nil
}

var _ domsvc.Analyzer = (*Engine)(nil)

