package api

// FieldSpec describes one field of a result section.
type FieldSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Role string `json:"role"`
}

// ResultSchema is the field layout clients can rely on.
var ResultSchema = map[string][]FieldSpec{
	"transits": {
		{Name: "period", Type: "timestamp", Role: "period start (UTC)"},
		{Name: "body", Type: "string", Role: "celestial body"},
		{Name: "sign", Type: "string", Role: "zodiac sign, descriptive"},
		{Name: "aspect", Type: "string", Role: "conjunction, sextile, square, trine or opposition"},
		{Name: "orb", Type: "number", Role: "degrees from exact, 0 to 5"},
		{Name: "retrograde", Type: "boolean", Role: "dampens strength when true"},
		{Name: "influence", Type: "string", Role: "display label, not scored"},
	},
	"probabilities": {
		{Name: "period", Type: "timestamp", Role: "period start (UTC)"},
		{Name: "bullish_probability", Type: "number", Role: "0 to 1"},
		{Name: "bearish_probability", Type: "number", Role: "1 - bullish_probability"},
		{Name: "transits", Type: "array", Role: "events of the period"},
	},
	"price_data": {
		{Name: "timestamp", Type: "timestamp", Role: "sample time (UTC)"},
		{Name: "price", Type: "number", Role: "simulated price, always positive"},
		{Name: "bullish_probability", Type: "number", Role: "probability of the sample's period"},
		{Name: "bearish_probability", Type: "number", Role: "probability of the sample's period"},
	},
	"current_recommendation": {
		{Name: "period", Type: "timestamp", Role: "period the label was derived from"},
		{Name: "label", Type: "string", Role: "Strong Buy, Buy, Neutral, Sell or Strong Sell"},
		{Name: "confidence", Type: "string", Role: "percentage with one decimal"},
		{Name: "bullish_probability", Type: "string", Role: "percentage with one decimal"},
		{Name: "bearish_probability", Type: "string", Role: "percentage with one decimal"},
	},
}
