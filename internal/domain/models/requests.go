package models

import "strings"

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	Symbol    string `param:"symbol" query:"symbol" json:"symbol" validate:"required,max=32"`
	Timeframe string `param:"timeframe" query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=intraday daily weekly monthly"`
	AsOf      string `query:"as_of" json:"as_of"`
}

// Normalize trims the symbol and lowercases the timeframe.
func (r *AnalysisRequest) Normalize() {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Timeframe = strings.ToLower(strings.TrimSpace(r.Timeframe))
	r.AsOf = strings.TrimSpace(r.AsOf)
}

type StreamRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"intraday" validate:"oneof=intraday daily weekly monthly"`
	Interval  int    `query:"interval" json:"interval" default:"15" validate:"gte=1,lte=3600"`
}

func (r *StreamRequest) Normalize() {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Timeframe = strings.ToLower(strings.TrimSpace(r.Timeframe))
}

// AnalysisCommand is the message schema of the analysis requests topic.
type AnalysisCommand struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}
