// Package permute implements randomization tests: two-sample relabeling,
// one-sample sign flipping, confidence intervals for a shift by inverting the
// two-sample test, and a permutation test for Pearson correlation.
//
// Every entry point is a pure function of its inputs and the state of the
// random generator named by the config's Seed. With a Fixed seed and the same
// Reps, the p-value and the ordered distribution are reproducible.
package permute

import (
	"gopermute/adapters/rng"
	"gopermute/adapters/stats/rootfind"
	"gopermute/domain/core"
	"gopermute/domain/outcomes"
	"gopermute/domain/stats"
)

// Default replication counts
const (
	DefaultTestReps    = 100000
	DefaultConfIntReps = 10000
	DefaultCorrReps    = 10000
	DefaultLevel       = 0.95
)

// TwoSampleConfig parameterizes TwoSample.
type TwoSampleConfig struct {
	Reps        int
	Stat        stats.Statistic
	Alternative stats.Alternative
	KeepDist    bool
	Seed        rng.Seed
	Shift       outcomes.Shift
	// Workers > 1 evaluates replications concurrently on derived sub-streams.
	Workers int
}

// DefaultTwoSampleConfig returns mean difference, greater, 100000 reps, no shift.
func DefaultTwoSampleConfig() TwoSampleConfig {
	return TwoSampleConfig{
		Reps:        DefaultTestReps,
		Stat:        stats.MeanStatistic(),
		Alternative: stats.Greater,
	}
}

// OneSampleConfig parameterizes OneSample.
type OneSampleConfig struct {
	Reps        int
	Stat        stats.Statistic
	Alternative stats.Alternative
	KeepDist    bool
	Seed        rng.Seed
	Workers     int
}

// DefaultOneSampleConfig returns mean, greater, 100000 reps.
func DefaultOneSampleConfig() OneSampleConfig {
	return OneSampleConfig{
		Reps:        DefaultTestReps,
		Stat:        stats.MeanStatistic(),
		Alternative: stats.Greater,
	}
}

// ConfIntConfig parameterizes TwoSampleConfInt.
type ConfIntConfig struct {
	Level   float64
	Side    stats.IntervalSide
	Seed    rng.Seed
	Reps    int
	Stat    stats.Statistic
	Workers int
	Solver  rootfind.Options
}

// DefaultConfIntConfig returns a two-sided 95% interval with 10000 reps per
// evaluation.
func DefaultConfIntConfig() ConfIntConfig {
	return ConfIntConfig{
		Level: DefaultLevel,
		Side:  stats.IntervalTwoSided,
		Reps:  DefaultConfIntReps,
		Stat:  stats.MeanStatistic(),
	}
}

// CorrConfig parameterizes Corr.
type CorrConfig struct {
	Reps    int
	Seed    rng.Seed
	Workers int
}

// DefaultCorrConfig returns 10000 reps.
func DefaultCorrConfig() CorrConfig {
	return CorrConfig{Reps: DefaultCorrReps}
}

// Result is the outcome of a one- or two-sample test.
type Result struct {
	PValue float64 `json:"p_value"`
	// Observed is the statistic on the observed data, before the alternative
	// transform. For two-sample tests this is the reported test statistic.
	Observed float64 `json:"observed"`
	// Oriented is Observed after the alternative transform; one-sample tests
	// report this value as their statistic.
	Oriented float64 `json:"oriented"`
	Hits     int     `json:"hits"`
	Reps     int     `json:"reps"`
	// Distribution holds one oriented value per replication in draw order,
	// only when KeepDist was set.
	Distribution []float64 `json:"distribution,omitempty"`
}

// Interval holds confidence bounds for the shift parameter.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies inside the closed interval
func (iv Interval) Contains(v float64) bool {
	return iv.Low <= v && v <= iv.High
}

// CorrResult is the outcome of Corr. The distribution is always returned.
type CorrResult struct {
	Observed       float64   `json:"observed"`
	LeftPValue     float64   `json:"left_p_value"`
	RightPValue    float64   `json:"right_p_value"`
	TwoSidedPValue float64   `json:"two_sided_p_value"`
	Reps           int       `json:"reps"`
	Distribution   []float64 `json:"distribution"`
}

func validateReps(reps int) error {
	if reps <= 0 {
		return core.NewInputError(core.ErrInvalidReps, "got %d", reps)
	}
	return nil
}

func validateAlternative(alt stats.Alternative) (stats.Alternative, error) {
	if alt == "" {
		return stats.Greater, nil
	}
	if !alt.Valid() {
		return "", core.NewInputError(core.ErrUnknownAlternative, "%q", string(alt))
	}
	return alt, nil
}

func validateSample(name string, v []float64) error {
	if len(v) == 0 {
		return core.NewInputError(core.ErrEmptySample, "%s", name)
	}
	return nil
}
