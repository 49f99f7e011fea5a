package permute

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"gopermute/adapters/rng"
	"gopermute/domain/core"
	"gopermute/domain/stats"
)

// OneSample tests whether x is symmetric about zero, or, when y is non-nil,
// whether the paired differences x - y are. Each replication multiplies the
// differences by independent fair random signs.
//
// Result.Oriented is the value the test reports as its statistic; Observed
// carries the untransformed value.
func OneSample(x, y []float64, cfg OneSampleConfig) (*Result, error) {
	if y != nil && len(x) != len(y) {
		return nil, core.NewInputError(core.ErrPairing, "len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if err := validateReps(cfg.Reps); err != nil {
		return nil, err
	}
	if err := validateSample("x", x); err != nil {
		return nil, err
	}
	alt, err := validateAlternative(cfg.Alternative)
	if err != nil {
		return nil, err
	}
	fn, err := cfg.Stat.OneSample()
	if err != nil {
		return nil, err
	}

	z := make([]float64, len(x))
	if y == nil {
		copy(z, x)
	} else {
		floats.SubTo(z, x, y)
	}

	observed := fn(z)
	oriented := alt.Apply(observed)

	src := rng.Get(cfg.Seed)
	sim := simulation{reps: cfg.Reps, workers: cfg.Workers, keep: cfg.KeepDist}
	hits, dist, err := sim.run(src, func() replicator {
		return &signFlipper{z: z, buf: make([]float64, len(z)), fn: fn, alt: alt}
	}, oriented)
	if err != nil {
		return nil, err
	}

	return &Result{
		PValue:       float64(hits) / float64(cfg.Reps),
		Observed:     observed,
		Oriented:     oriented,
		Hits:         hits,
		Reps:         cfg.Reps,
		Distribution: dist,
	}, nil
}

// signFlipper draws a fresh sign vector every replication
type signFlipper struct {
	z   []float64
	buf []float64
	fn  stats.OneSampleFunc
	alt stats.Alternative
}

func (s *signFlipper) reset() {}

func (s *signFlipper) replicate(src *rng.Source) float64 {
	coin := distuv.Bernoulli{P: 0.5, Src: src}
	for i, v := range s.z {
		// sign = 1 - 2*flip
		s.buf[i] = v * (1 - 2*coin.Rand())
	}
	return s.alt.Apply(s.fn(s.buf))
}
