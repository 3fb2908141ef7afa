package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordAnalysis("daily", "Buy")
	r.RecordAnalysis("daily", "Buy")
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheLookup(false)
	r.RecordError("publish")
	r.RecordBullishProbability("AAPL", 0.62)
	r.RecordLatency("analyze", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("daily", "Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("publish")))
	assert.Equal(t, 0.62, testutil.ToFloat64(r.bullish.WithLabelValues("AAPL")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
