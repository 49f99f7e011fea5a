// Package testkit provides seeded sample fixtures for permutation tests.
package testkit

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"gopermute/adapters/rng"
)

// TestKit generates reproducible samples from named streams
type TestKit struct {
	baseSeed int64
}

// NewTestKit creates a kit whose streams derive from baseSeed
func NewTestKit(baseSeed int64) *TestKit {
	return &TestKit{baseSeed: baseSeed}
}

// Stream returns the generator for a named fixture. The same name always
// yields the same sequence for a given kit.
func (t *TestKit) Stream(name string) *rng.Source {
	return rng.Get(rng.NamedSeed(name, t.baseSeed))
}

// Normal draws n values from N(mu, sigma^2) on the named stream
func (t *TestKit) Normal(name string, n int, mu, sigma float64) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: t.Stream(name)}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// ShiftedPair returns two normal samples whose population means differ by
// delta: x ~ N(delta, 1) and y ~ N(0, 1).
func (t *TestKit) ShiftedPair(name string, nx, ny int, delta float64) (x, y []float64) {
	x = t.Normal(name+"/x", nx, delta, 1)
	y = t.Normal(name+"/y", ny, 0, 1)
	return x, y
}

// Paired returns n pairs where x = y + delta + noise
func (t *TestKit) Paired(name string, n int, delta, noise float64) (x, y []float64) {
	y = t.Normal(name+"/base", n, 10, 2)
	x = t.Normal(name+"/noise", n, delta, noise)
	floats.Add(x, y)
	return x, y
}

// Linear returns n pairs with y = slope*x + noise
func (t *TestKit) Linear(name string, n int, slope, noise float64) (x, y []float64) {
	x = t.Normal(name+"/x", n, 0, 1)
	y = t.Normal(name+"/noise", n, 0, noise)
	floats.AddScaled(y, slope, x)
	return x, y
}

// Sequence returns start, start+1, ..., start+n-1
func Sequence(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}
