package astro

import "github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"

var baseStrength = map[models.Aspect]float64{
	models.Conjunction: 1.0,
	models.Opposition:  0.9,
	models.Trine:       0.8,
	models.Square:      0.7,
	models.Sextile:     0.6,
}

var bodyWeight = map[models.Body]float64{
	models.Sun:     0.9,
	models.Moon:    0.8,
	models.Mercury: 0.7,
	models.Venus:   0.85,
	models.Mars:    0.75,
	models.Jupiter: 0.95,
	models.Saturn:  0.8,
	models.Uranus:  0.7,
	models.Neptune: 0.65,
	models.Pluto:   0.6,
}

// RetrogradeDamping multiplies the strength of retrograde transits.
const RetrogradeDamping = 0.9

// Strength scores one transit. For orb in [0,5] the result lies in (0,1].
// The value carries no direction; Classify decides which side it counts for.
func Strength(ev models.TransitEvent) float64 {
	retro := 1.0
	if ev.Retrograde {
		retro = RetrogradeDamping
	}
	return baseStrength[ev.Aspect] * (1 - ev.Orb/10) * retro * bodyWeight[ev.Body]
}

// BodyWeight exposes the registered weight of b and whether b is known.
func BodyWeight(b models.Body) (float64, bool) {
	w, ok := bodyWeight[b]
	return w, ok
}
