package astro

import (
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

// Aggregate groups transits by period, keeping first-seen period order,
// and reduces each group to a bullish/bearish probability pair. A period
// without classified transits resolves to (0.5, 0.5).
func Aggregate(events []models.TransitEvent) []models.PeriodProbability {
	index := make(map[time.Time]int)
	out := make([]models.PeriodProbability, 0)
	for _, ev := range events {
		key := ev.Period.UTC()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.PeriodProbability{Period: ev.Period})
		}
		out[i].Transits = append(out[i].Transits, ev)
	}
	for i := range out {
		out[i].BullishProbability, out[i].BearishProbability = probabilities(out[i].Transits)
	}
	return out
}

func probabilities(events []models.TransitEvent) (bull, bear float64) {
	var bullScore, bearScore float64
	for _, ev := range events {
		switch models.Classify(ev.Body) {
		case models.BiasBullish:
			bullScore += Strength(ev)
		case models.BiasBearish:
			bearScore += Strength(ev)
		}
	}
	total := bullScore + bearScore
	if total <= 0 {
		return 0.5, 0.5
	}
	bull = bullScore / total
	return bull, 1 - bull
}
