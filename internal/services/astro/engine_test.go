package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	domrepo "github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
)

var anchor = time.Date(2024, 6, 14, 15, 30, 0, 0, time.UTC)

func TestAnalyze_Deterministic(t *testing.T) {
	e := NewEngine()
	a, err := e.Analyze("AAPL", domrepo.TFDaily, anchor)
	require.NoError(t, err)
	b, err := e.Analyze("AAPL", domrepo.TFDaily, anchor)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.Analyze(" aapl ", domrepo.TFDaily, anchor)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestAnalyze_PeriodCounts(t *testing.T) {
	e := NewEngine()
	cases := map[domrepo.Timeframe][2]int{
		domrepo.TFIntraday: {7, 28},
		domrepo.TFDaily:    {7, 7},
		domrepo.TFWeekly:   {30, 30},
		domrepo.TFMonthly:  {90, 90},
	}
	for tf, want := range cases {
		res, err := e.Analyze("TSLA", tf, anchor)
		require.NoError(t, err)
		assert.Len(t, res.Probabilities, want[0], string(tf))
		assert.Len(t, res.Transits, want[0]*len(models.Bodies), string(tf))
		assert.Len(t, res.PriceData, want[1], string(tf))
		assert.Equal(t, string(tf), res.Timeframe)
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	res, err := NewEngine().Analyze("GOOGL", domrepo.TFMonthly, anchor)
	require.NoError(t, err)
	for _, p := range res.Probabilities {
		assert.InDelta(t, 1.0, p.BullishProbability+p.BearishProbability, 1e-9)
		assert.GreaterOrEqual(t, p.BullishProbability, 0.0)
		assert.LessOrEqual(t, p.BullishProbability, 1.0)
		assert.Len(t, p.Transits, len(models.Bodies))
	}
	for _, p := range res.PriceData {
		assert.Greater(t, p.Price, 0.0)
	}
	last := res.Probabilities[len(res.Probabilities)-1]
	assert.Equal(t, last.Period, res.CurrentRecommendation.Period)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), last.Period)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), res.GeneratedFor)
}

func TestAnalyze_Errors(t *testing.T) {
	e := NewEngine()
	_, err := e.Analyze("", domrepo.TFDaily, anchor)
	assert.ErrorIs(t, err, models.ErrEmptySymbol)
	_, err = e.Analyze("   ", domrepo.TFDaily, anchor)
	assert.ErrorIs(t, err, models.ErrEmptySymbol)
	_, err = e.Analyze("AAPL", domrepo.Timeframe("yearly"), anchor)
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)
}
