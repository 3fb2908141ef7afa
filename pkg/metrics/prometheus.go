package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	bullish      *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_analyses_total",
				Help: "Total number of analyses computed, by timeframe and recommendation",
			},
			[]string{"timeframe", "label"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_cache_lookups_total",
				Help: "Analysis cache lookups by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		bullish: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "astro_bullish_probability",
				Help: "Bullish probability of the latest period for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astro_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis counts a computed analysis.
func (r *Recorder) RecordAnalysis(timeframe, label string) {
	r.analyses.WithLabelValues(timeframe, label).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordBullishProbability records the latest bullish probability of symbol.
func (r *Recorder) RecordBullishProbability(symbol string, p float64) {
	r.bullish.WithLabelValues(symbol).Set(p)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordAnalysis(string, string)            {}
func (Nop) RecordCacheLookup(bool)                   {}
func (Nop) RecordError(string)                       {}
func (Nop) RecordBullishProbability(string, float64) {}
func (Nop) RecordLatency(string, float64)            {}
