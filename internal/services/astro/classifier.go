package astro

import (
	"fmt"
	"math"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

const (
	strongThreshold = 0.6
	weakThreshold   = 0.55
)

// ClassifyProbability maps a bullish probability to a label and a confidence in
// percent. Bands are checked in priority order and cover [0,1] exactly once.
func ClassifyProbability(bull float64) (models.Label, float64) {
	bear := 1 - bull
	dist := math.Abs(bull - 0.5)
	switch {
	case bull > strongThreshold:
		return models.StrongBuy, dist * 100
	case bull > weakThreshold:
		return models.Buy, dist * 80
	case bear > strongThreshold:
		return models.StrongSell, dist * 100
	case bear > weakThreshold:
		return models.Sell, dist * 80
	default:
		return models.Neutral, 0
	}
}

// Recommend builds the recommendation of the last period in series.
func Recommend(series []models.PeriodProbability) models.Recommendation {
	if len(series) == 0 {
		return models.Recommendation{
			Label:              models.Neutral,
			Confidence:         percent(0),
			BullishProbability: percent(50),
			BearishProbability: percent(50),
		}
	}
	last := series[len(series)-1]
	label, conf := ClassifyProbability(last.BullishProbability)
	return models.Recommendation{
		Period:             last.Period,
		Label:              label,
		Confidence:         percent(conf),
		BullishProbability: percent(last.BullishProbability * 100),
		BearishProbability: percent(last.BearishProbability * 100),
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
