// Package binom computes exact (Clopper-Pearson) confidence bounds for a
// binomial proportion, the usual companion to a Monte Carlo p-value.
package binom

import (
	"gonum.org/v1/gonum/stat/distuv"

	"gopermute/domain/core"
	"gopermute/domain/stats"
)

// DefaultLevel is the confidence level used when none is given
const DefaultLevel = 0.975

// Interval bounds the success probability
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ConfInterval returns bounds for the success probability after k successes
// in n trials. A two-sided interval spends (1-level)/2 in each tail; the
// "lower" side reports [low, 1] and the "upper" side [0, high].
func ConfInterval(n, k int, level float64, side stats.IntervalSide) (Interval, error) {
	if n <= 0 {
		return Interval{}, core.NewInputError(core.ErrInvalidInput, "trials must be positive, got %d", n)
	}
	if k < 0 || k > n {
		return Interval{}, core.NewInputError(core.ErrInvalidInput, "successes must be in [0, %d], got %d", n, k)
	}
	if !(level > 0 && level < 1) {
		return Interval{}, core.NewInputError(core.ErrInvalidConfidence, "got %g", level)
	}
	if side == "" {
		side = stats.IntervalTwoSided
	}
	if !side.Valid() {
		return Interval{}, core.NewInputError(core.ErrInvalidInput, "unknown interval side %q", string(side))
	}

	if side == stats.IntervalTwoSided {
		level = 1 - (1-level)/2
	}
	alpha := 1 - level

	iv := Interval{Low: 0, High: 1}
	if side != stats.IntervalUpper && k > 0 {
		iv.Low = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha)
	}
	if side != stats.IntervalLower && k < n {
		iv.High = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(level)
	}
	return iv, nil
}

// PValueInterval bounds the p-value estimated from hits out of reps
// replications.
func PValueInterval(hits, reps int, level float64) (Interval, error) {
	return ConfInterval(reps, hits, level, stats.IntervalTwoSided)
}
