package genotype

import (
	"math/rand"
	"time"
)

// Source is the random collaborator every stochastic component draws from.
// *rand.Rand satisfies it.
type Source interface {
	// Intn returns a uniform int in [0, n). n must be > 0.
	Intn(n int) int
	// Float64 returns a uniform float64 in [0, 1).
	Float64() float64
}

// NewSource returns a seeded source. Seed it once per process.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// TimeSeed derives a seed from the wall clock.
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

// Between returns a uniform int in the closed range [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// UnitFloat returns a uniform float64 in [0, 1).
func UnitFloat(src Source) float64 {
	return src.Float64()
}

func randomChannel(src Source) uint8 {
	return uint8(Between(src, 0, 255))
}
