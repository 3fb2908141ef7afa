package models

import (
	"errors"
	"time"
)

var (
	ErrEmptySymbol      = errors.New("symbol is empty")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// PeriodProbability is the aggregated signal of one period.
// BullishProbability + BearishProbability == 1.
type PeriodProbability struct {
	Period             time.Time      `json:"period"`
	BullishProbability float64        `json:"bullish_probability"`
	BearishProbability float64        `json:"bearish_probability"`
	Transits           []TransitEvent `json:"transits"`
}

// PricePoint is one sample of the simulated price path.
type PricePoint struct {
	Timestamp          time.Time `json:"timestamp"`
	Price              float64   `json:"price"`
	BullishProbability float64   `json:"bullish_probability"`
	BearishProbability float64   `json:"bearish_probability"`
}

// Label is a discrete trading recommendation.
type Label string

const (
	StrongBuy  Label = "Strong Buy"
	Buy        Label = "Buy"
	Neutral    Label = "Neutral"
	Sell       Label = "Sell"
	StrongSell Label = "Strong Sell"
)

// Recommendation is derived from the most recent PeriodProbability.
// Percentages are rendered with one decimal, e.g. "50.0%".
type Recommendation struct {
	Period             time.Time `json:"period"`
	Label              Label     `json:"label"`
	Confidence         string    `json:"confidence"`
	BullishProbability string    `json:"bullish_probability"`
	BearishProbability string    `json:"bearish_probability"`
}

// AnalysisResult is the payload handed to dashboards, the API and the
// message bus for a (symbol, timeframe) pair.
type AnalysisResult struct {
	Symbol                string              `json:"symbol"`
	Timeframe             string              `json:"timeframe"`
	GeneratedFor          time.Time           `json:"generated_for"`
	Transits              []TransitEvent      `json:"transits"`
	Probabilities         []PeriodProbability `json:"probabilities"`
	PriceData             []PricePoint        `json:"price_data"`
	CurrentRecommendation Recommendation      `json:"current_recommendation"`
}
