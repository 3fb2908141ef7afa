package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

func TestClassifyProbability_Bands(t *testing.T) {
	cases := []struct {
		bull  float64
		label models.Label
		conf  float64
	}{
		{1.0, models.StrongBuy, 50},
		{0.61, models.StrongBuy, 11},
		{0.6, models.Buy, 8},
		{0.56, models.Buy, 4.8},
		{0.55, models.Neutral, 0},
		{0.5, models.Neutral, 0},
		{0.45, models.Neutral, 0},
		{0.44, models.Sell, 4.8},
		{0.4, models.Sell, 8},
		{0.39, models.StrongSell, 11},
		{0.0, models.StrongSell, 50},
	}
	for _, tc := range cases {
		label, conf := ClassifyProbability(tc.bull)
		assert.Equal(t, tc.label, label, "bull=%v", tc.bull)
		assert.InDelta(t, tc.conf, conf, 1e-9, "bull=%v", tc.bull)
	}
}

func TestClassifyProbability_ExhaustiveOverUnitInterval(t *testing.T) {
	seen := map[models.Label]bool{}
	for i := 0; i <= 10000; i++ {
		label, conf := ClassifyProbability(float64(i) / 10000)
		assert.NotEmpty(t, label)
		assert.GreaterOrEqual(t, conf, 0.0)
		assert.LessOrEqual(t, conf, 50.0)
		seen[label] = true
	}
	assert.Len(t, seen, 5)
}

func TestRecommend_UsesLastPeriod(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := Recommend([]models.PeriodProbability{
		{Period: d, BullishProbability: 0, BearishProbability: 1},
		{Period: d.AddDate(0, 0, 1), BullishProbability: 1, BearishProbability: 0},
	})
	assert.Equal(t, models.StrongBuy, rec.Label)
	assert.Equal(t, "50.0%", rec.Confidence)
	assert.Equal(t, "100.0%", rec.BullishProbability)
	assert.Equal(t, "0.0%", rec.BearishProbability)
	assert.Equal(t, d.AddDate(0, 0, 1), rec.Period)
}

func TestRecommend_EmptySeriesIsNeutral(t *testing.T) {
	rec := Recommend(nil)
	assert.Equal(t, models.Neutral, rec.Label)
	assert.Equal(t, "0.0%", rec.Confidence)
	assert.Equal(t, "50.0%", rec.BullishProbability)
}
