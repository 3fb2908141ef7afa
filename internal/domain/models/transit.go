package models

import "time"

// Body is a simulated celestial body.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
	Pluto   Body = "Pluto"
)

// Bodies is the canonical body table. Generation order follows it.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// Sign is a zodiac sign. Descriptive only.
type Sign string

var Signs = []Sign{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Aspect is the angular relationship type of a transit.
type Aspect string

const (
	Conjunction Aspect = "conjunction"
	Sextile     Aspect = "sextile"
	Square      Aspect = "square"
	Trine       Aspect = "trine"
	Opposition  Aspect = "opposition"
)

var Aspects = []Aspect{Conjunction, Sextile, Square, Trine, Opposition}

// MaxOrb bounds TransitEvent.Orb.
const MaxOrb = 5.0

// Bias is the market direction a body pushes towards.
type Bias int

const (
	BiasNeutral Bias = iota
	BiasBullish
	BiasBearish
)

func (b Bias) String() string {
	switch b {
	case BiasBullish:
		return "bullish"
	case BiasBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Classify returns the bias of a body. Only Jupiter, Venus and Sun are
// bullish and only Saturn, Mars and Pluto are bearish.
func Classify(b Body) Bias {
	switch b {
	case Jupiter, Venus, Sun:
		return BiasBullish
	case Saturn, Mars, Pluto:
		return BiasBearish
	default:
		return BiasNeutral
	}
}

// TransitEvent is one simulated observation of a body in a period.
type TransitEvent struct {
	Period     time.Time `json:"period"`
	Body       Body      `json:"body"`
	Sign       Sign      `json:"sign"`
	Aspect     Aspect    `json:"aspect"`
	Orb        float64   `json:"orb"`
	Retrograde bool      `json:"retrograde"`
	Influence  string    `json:"influence"`
}

// Influence labels shown next to a transit. They are informational and
// do not take part in scoring.
const (
	InfluenceBullish       = "Bullish"
	InfluenceMildlyBullish = "Mildly Bullish"
	InfluenceBearish       = "Bearish"
	InfluenceMildlyBearish = "Mildly Bearish"
	InfluenceNeutral       = "Neutral"
)

// InfluenceOf labels a transit: hard aspects (square, opposition) soften
// a bullish body and harden a bearish one.
func InfluenceOf(b Body, a Aspect) string {
	hard := a == Square || a == Opposition
	switch Classify(b) {
	case BiasBullish:
		if hard {
			return InfluenceMildlyBearish
		}
		return InfluenceBullish
	case BiasBearish:
		if hard {
			return InfluenceBearish
		}
		return InfluenceMildlyBullish
	default:
		return InfluenceNeutral
	}
}
