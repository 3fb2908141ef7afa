package astro

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

// RetrogradeProbability is the chance a generated transit is retrograde.
const RetrogradeProbability = 0.15

// Generator produces simulated transits: one event per (period, body).
type Generator struct {
	bodies []models.Body
}

func NewGenerator(bodies []models.Body) *Generator {
	if len(bodies) == 0 {
		bodies = models.Bodies
	}
	return &Generator{bodies: bodies}
}

// Generate draws len(periods) × len(bodies) events from rng, period by
// period in body-table order. Per event the draw order is sign, aspect,
// orb, retrograde.
func (g *Generator) Generate(rng *rand.Rand, periods []time.Time) []models.TransitEvent {
	out := make([]models.TransitEvent, 0, len(periods)*len(g.bodies))
	for _, p := range periods {
		for _, b := range g.bodies {
			sign := models.Signs[rng.IntN(len(models.Signs))]
			aspect := models.Aspects[rng.IntN(len(models.Aspects))]
			orb := math.Round(rng.Float64()*models.MaxOrb*100) / 100
			retro := rng.Float64() < RetrogradeProbability
			out = append(out, models.TransitEvent{
				Period:     p,
				Body:       b,
				Sign:       sign,
				Aspect:     aspect,
				Orb:        orb,
				Retrograde: retro,
				Influence:  models.InfluenceOf(b, aspect),
			})
		}
	}
	return out
}
