package stats

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Mean is the arithmetic mean; NaN for an empty sample.
func Mean(x []float64) float64 {
	m, err := stats.Mean(x)
	if err != nil {
		return math.NaN()
	}
	return m
}

// MeanDifference is mean(x) - mean(y).
func MeanDifference(x, y []float64) float64 {
	return Mean(x) - Mean(y)
}

// PooledTStatistic is the equal-variance two-sample t statistic.
func PooledTStatistic(x, y []float64) float64 {
	nx, ny := float64(len(x)), float64(len(y))
	vx, err := stats.SampleVariance(x)
	if err != nil {
		return math.NaN()
	}
	vy, err := stats.SampleVariance(y)
	if err != nil {
		return math.NaN()
	}

	pooled := ((nx-1)*vx + (ny-1)*vy) / (nx + ny - 2)
	se := math.Sqrt(pooled * (1/nx + 1/ny))
	return (Mean(x) - Mean(y)) / se
}

// OneSampleTStatistic is the t statistic of z against a population mean of 0.
func OneSampleTStatistic(z []float64) float64 {
	v, err := stats.SampleVariance(z)
	if err != nil {
		return math.NaN()
	}
	return Mean(z) / math.Sqrt(v/float64(len(z)))
}

// Pearson is the Pearson product-moment correlation coefficient. Unequal or
// empty inputs give NaN; a constant input gives 0.
func Pearson(x, y []float64) float64 {
	r, err := stats.Correlation(x, y)
	if err != nil {
		return math.NaN()
	}
	return r
}

// Range returns the minimum and maximum of x.
func Range(x []float64) (lo, hi float64) {
	lo, err := stats.Min(x)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	hi, _ = stats.Max(x)
	return lo, hi
}
