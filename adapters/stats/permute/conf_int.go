package permute

import (
	"math"

	"gopermute/adapters/stats/rootfind"
	"gopermute/domain/core"
	"gopermute/domain/outcomes"
	"gopermute/domain/stats"
)

// TwoSampleConfInt computes a confidence interval for a constant shift
// between x and y by inverting TwoSample.
//
// The lower bound is the shift at which the "less" p-value crosses the
// confidence level, searched between the observed mean difference and
// -2*limit, where limit is the largest cross-sample spread. The upper bound
// mirrors it with the "greater" p-value. Every evaluation runs a full test
// with the same cfg.Seed, so a Fixed seed replays one permutation stream and
// the objective is a deterministic step function. A side that is not
// requested is reported as -limit or +limit.
func TwoSampleConfInt(x, y []float64, cfg ConfIntConfig) (Interval, error) {
	if !(cfg.Level > 0 && cfg.Level < 1) {
		return Interval{}, core.NewInputError(core.ErrInvalidConfidence, "got %g", cfg.Level)
	}
	side := cfg.Side
	if side == "" {
		side = stats.IntervalTwoSided
	}
	if !side.Valid() {
		return Interval{}, core.NewInputError(core.ErrInvalidInput, "unknown interval side %q", string(side))
	}
	if err := validateReps(cfg.Reps); err != nil {
		return Interval{}, err
	}
	if err := validateSample("x", x); err != nil {
		return Interval{}, err
	}
	if err := validateSample("y", y); err != nil {
		return Interval{}, err
	}

	limit := shiftLimit(x, y)
	if math.IsNaN(limit) || math.IsInf(limit, 0) {
		return Interval{}, core.NewInputError(core.ErrInvalidInput, "samples must be finite")
	}
	observed := stats.MeanDifference(x, y)

	level := cfg.Level
	if side == stats.IntervalTwoSided {
		level = 1 - (1-level)/2
	}

	iv := Interval{Low: -limit, High: limit}

	if side != stats.IntervalUpper {
		low, err := solveBound(x, y, cfg, level, stats.Less, observed, -2*limit)
		if err != nil {
			return Interval{}, err
		}
		iv.Low = low
	}
	if side != stats.IntervalLower {
		high, err := solveBound(x, y, cfg, level, stats.Greater, 2*limit, observed)
		if err != nil {
			return Interval{}, err
		}
		iv.High = high
	}
	return iv, nil
}

// solveBound finds q in the bracket [a, b] with p_alt(q) = level
func solveBound(x, y []float64, cfg ConfIntConfig, level float64, alt stats.Alternative, a, b float64) (float64, error) {
	var evalErr error
	objective := func(q float64) float64 {
		if evalErr != nil {
			return 0
		}
		res, err := TwoSample(x, y, TwoSampleConfig{
			Reps:        cfg.Reps,
			Stat:        cfg.Stat,
			Alternative: alt,
			Seed:        cfg.Seed,
			Shift:       outcomes.Constant(q),
			Workers:     cfg.Workers,
		})
		if err != nil {
			// a zero value ends the search; the error is reported below
			evalErr = err
			return 0
		}
		return level - res.PValue
	}

	root, err := rootfind.Brentq(objective, a, b, cfg.Solver)
	if evalErr != nil {
		return 0, evalErr
	}
	if err != nil {
		return 0, err
	}
	return root, nil
}

// shiftLimit is max(|max(x) - min(y)|, |max(y) - min(x)|)
func shiftLimit(x, y []float64) float64 {
	xlo, xhi := stats.Range(x)
	ylo, yhi := stats.Range(y)
	return math.Max(math.Abs(xhi-ylo), math.Abs(yhi-xlo))
}
