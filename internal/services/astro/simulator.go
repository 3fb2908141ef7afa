package astro

import (
	"math/rand/v2"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
)

const (
	StartPrice         = 100.0
	IntradayVolatility = 0.005
	PeriodVolatility   = 0.02

	noiseMin = 0.8
	noiseMax = 1.2

	// minStepMultiplier keeps every step strictly positive.
	minStepMultiplier = 0.01
)

// Simulator drives a synthetic price path whose drift follows the bullish
// bias of each period.
type Simulator struct {
	start float64
}

func NewSimulator(start float64) *Simulator {
	if start <= 0 {
		start = StartPrice
	}
	return &Simulator{start: start}
}

// Simulate emits tf.SamplesPerPeriod() samples per period, spaced by the
// intraday cadence when there is more than one.
func (s *Simulator) Simulate(rng *rand.Rand, series []models.PeriodProbability, tf domrepo.Timeframe) []models.PricePoint {
	samples := tf.SamplesPerPeriod()
	base := PeriodVolatility
	if tf == domrepo.TFIntraday {
		base = IntradayVolatility
	}

	price := s.start
	out := make([]models.PricePoint, 0, len(series)*samples)
	for _, pp := range series {
		dir := pp.BullishProbability - 0.5
		vol := base * (1 + abs(dir))
		for i := 0; i < samples; i++ {
			noise := noiseMin + rng.Float64()*(noiseMax-noiseMin)
			price *= stepMultiplier(dir, vol, noise)
			out = append(out, models.PricePoint{
				Timestamp:          pp.Period.Add(time.Duration(i) * domrepo.IntradayCadence),
				Price:              price,
				BullishProbability: pp.BullishProbability,
				BearishProbability: pp.BearishProbability,
			})
		}
	}
	return out
}

// stepMultiplier is 1 + dir*vol*noise, clamped to at least minStepMultiplier.
func stepMultiplier(dir, vol, noise float64) float64 {
	step := 1 + dir*vol*noise
	if step < minStepMultiplier {
		return minStepMultiplier
	}
	return step
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
