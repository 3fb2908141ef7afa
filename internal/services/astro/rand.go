package astro

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
)

// NormalizeSymbol trims and upper-cases a ticker so "aapl " and "AAPL"
// share a seed.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SeedFor derives the random seed of a symbol with 64-bit FNV-1a, which
// is stable across processes and platforms.
func SeedFor(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64()
}

// NewRand returns a fresh source seeded for symbol. Sources are never shared
// between requests.
func NewRand(symbol string) *rand.Rand {
	seed := SeedFor(symbol)
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
