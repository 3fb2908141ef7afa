package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
)

// Timeframe selects how many periods an analysis covers and how they are bucketed.
type Timeframe string

const (
	TFIntraday Timeframe = "intraday"
	TFDaily    Timeframe = "daily"
	TFWeekly   Timeframe = "weekly"
	TFMonthly  Timeframe = "monthly"
)

// Intraday session in UTC. Each hour of the session is one period and
// each period is sampled every IntradayCadence by the price simulator.
const (
	SessionOpenHour  = 9
	SessionCloseHour = 16
	IntradayCadence  = 15 * time.Minute
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFIntraday, TFDaily, TFWeekly, TFMonthly:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFDaily }

// ParseTimeframe converts raw input into a Timeframe. Unknown values fail
// with models.ErrInvalidTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidTimeframe(tf) {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidTimeframe, s)
	}
	return tf, nil
}

// PeriodCount is the number of aggregation periods for tf.
func (tf Timeframe) PeriodCount() int {
	switch tf {
	case TFIntraday:
		return SessionCloseHour - SessionOpenHour
	case TFDaily:
		return 7
	case TFWeekly:
		return 30
	case TFMonthly:
		return 90
	default:
		return 0
	}
}

// PeriodLength is the width of one period.
func (tf Timeframe) PeriodLength() time.Duration {
	if tf == TFIntraday {
		return time.Hour
	}
	return 24 * time.Hour
}

// SamplesPerPeriod is the number of price samples emitted per period.
func (tf Timeframe) SamplesPerPeriod() int {
	if tf == TFIntraday {
		return int(time.Hour / IntradayCadence)
	}
	return 1
}

// Periods returns the consecutive period start times ending at anchor's
// day (or anchor's session for intraday), oldest first.
func (tf Timeframe) Periods(anchor time.Time) []time.Time {
	n := tf.PeriodCount()
	anchor = anchor.UTC()
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, n)
	if tf == TFIntraday {
		open := day.Add(SessionOpenHour * time.Hour)
		for i := 0; i < n; i++ {
			out = append(out, open.Add(time.Duration(i)*time.Hour))
		}
		return out
	}
	for i := n - 1; i >= 0; i-- {
		out = append(out, day.AddDate(0, 0, -i))
	}
	return out
}
