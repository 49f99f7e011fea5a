package permute

import (
	"math"

	"gopermute/adapters/rng"
	"gopermute/domain/core"
	"gopermute/domain/stats"
)

// Corr tests the association of paired samples x and y with the Pearson
// correlation. Each replication correlates a fresh random permutation of x
// with the fixed y. All three one- and two-sided p-values are reported along
// with the full distribution.
func Corr(x, y []float64, cfg CorrConfig) (*CorrResult, error) {
	if len(x) != len(y) {
		return nil, core.NewInputError(core.ErrPairing, "len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if err := validateSample("x", x); err != nil {
		return nil, err
	}
	if err := validateReps(cfg.Reps); err != nil {
		return nil, err
	}

	observed := stats.Pearson(x, y)

	src := rng.Get(cfg.Seed)
	sim := simulation{reps: cfg.Reps, workers: cfg.Workers, keep: true}
	_, dist, err := sim.run(src, func() replicator {
		return &corrPermuter{x: x, y: y, buf: make([]float64, len(x))}
	}, observed)
	if err != nil {
		return nil, err
	}

	var left, right, both int
	absObserved := math.Abs(observed)
	for _, r := range dist {
		if r <= observed {
			left++
		}
		if r >= observed {
			right++
		}
		if math.Abs(r) >= absObserved {
			both++
		}
	}

	n := float64(cfg.Reps)
	return &CorrResult{
		Observed:       observed,
		LeftPValue:     float64(left) / n,
		RightPValue:    float64(right) / n,
		TwoSidedPValue: float64(both) / n,
		Reps:           cfg.Reps,
		Distribution:   dist,
	}, nil
}

// corrPermuter permutes a copy of the original x every replication
type corrPermuter struct {
	x, y []float64
	buf  []float64
}

func (c *corrPermuter) reset() {}

func (c *corrPermuter) replicate(src *rng.Source) float64 {
	copy(c.buf, c.x)
	src.ShuffleFloats(c.buf)
	return stats.Pearson(c.buf, c.y)
}
