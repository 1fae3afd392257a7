package tensor

import (
	"math"
	"math/rand"
)

// Gaussian draws normally distributed samples with the polar Box-Muller
// method. Each call to the underlying transform yields two samples; the
// second is cached for the next Sample call.
//
// A Gaussian is owned by whoever initializes weights and is not safe for
// concurrent use.
type Gaussian struct {
	rng    *rand.Rand
	cached float64
	hasVal bool
}

// NewGaussian creates a generator seeded with seed.
func NewGaussian(seed int64) *Gaussian {
	return &Gaussian{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns a value from N(mu, std^2).
func (g *Gaussian) Sample(mu, std float64) float64 {
	return mu + std*g.standard()
}

// Float64 returns a uniform value in [0, 1).
func (g *Gaussian) Float64() float64 {
	return g.rng.Float64()
}

func (g *Gaussian) standard() float64 {
	if g.hasVal {
		g.hasVal = false
		return g.cached
	}
	for {
		u := 2*g.rng.Float64() - 1
		v := 2*g.rng.Float64() - 1
		r := u*u + v*v
		if r == 0 || r >= 1 {
			continue
		}
		c := math.Sqrt(-2 * math.Log(r) / r)
		g.cached = v * c
		g.hasVal = true
		return u * c
	}
}
