package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
)

func TestGenerate_OneEventPerPeriodAndBody(t *testing.T) {
	anchor := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	periods := domrepo.TFDaily.Periods(anchor)
	events := NewGenerator(nil).Generate(NewRand("AAPL"), periods)

	require.Len(t, events, 7*len(models.Bodies))
	for i, ev := range events {
		assert.Equal(t, periods[i/len(models.Bodies)], ev.Period)
		assert.Equal(t, models.Bodies[i%len(models.Bodies)], ev.Body)
		assert.GreaterOrEqual(t, ev.Orb, 0.0)
		assert.LessOrEqual(t, ev.Orb, models.MaxOrb)
		assert.Contains(t, models.Aspects, ev.Aspect)
		assert.Contains(t, models.Signs, ev.Sign)
		assert.Equal(t, models.InfluenceOf(ev.Body, ev.Aspect), ev.Influence)
	}
}

func TestGenerate_RetrogradeRateIsRoughlyFifteenPercent(t *testing.T) {
	anchor := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	var periods []time.Time
	for i := 0; i < 500; i++ {
		periods = append(periods, anchor.AddDate(0, 0, i))
	}
	events := NewGenerator(nil).Generate(NewRand("RATE"), periods)
	retro := 0
	for _, ev := range events {
		if ev.Retrograde {
			retro++
		}
	}
	assert.InDelta(t, RetrogradeProbability, float64(retro)/float64(len(events)), 0.03)
}

func TestGenerate_SameSeedSameEvents(t *testing.T) {
	periods := domrepo.TFWeekly.Periods(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	a := NewGenerator(nil).Generate(NewRand("MSFT"), periods)
	b := NewGenerator(nil).Generate(NewRand("MSFT"), periods)
	assert.Equal(t, a, b)
}

func TestSeedFor_StableFNV(t *testing.T) {
	// FNV-1a 64 offset basis for the empty input.
	assert.Equal(t, uint64(0xcbf29ce484222325), SeedFor(""))
	assert.NotEqual(t, SeedFor("AAPL"), SeedFor("MSFT"))
}

func TestInfluenceOf(t *testing.T) {
	assert.Equal(t, models.InfluenceBullish, models.InfluenceOf(models.Jupiter, models.Trine))
	assert.Equal(t, models.InfluenceMildlyBearish, models.InfluenceOf(models.Venus, models.Square))
	assert.Equal(t, models.InfluenceBearish, models.InfluenceOf(models.Saturn, models.Opposition))
	assert.Equal(t, models.InfluenceMildlyBullish, models.InfluenceOf(models.Mars, models.Sextile))
	assert.Equal(t, models.InfluenceNeutral, models.InfluenceOf(models.Moon, models.Conjunction))
}
