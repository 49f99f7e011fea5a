package permute

import (
	"gopermute/adapters/rng"
	"gopermute/domain/outcomes"
	"gopermute/domain/stats"
)

// TwoSample tests whether x and y come from the same population by randomly
// relabeling units between the two groups.
//
// The potential-outcomes table implied by cfg.Shift is built once. Each
// replication shuffles the row order in place, so successive arrangements
// build on one another, and evaluates the oriented statistic on the
// treatment outcomes of the first len(x) rows and the control outcomes of the
// rest. The p-value is the share of replications at least as extreme as the
// oriented observed value.
func TwoSample(x, y []float64, cfg TwoSampleConfig) (*Result, error) {
	if err := validateReps(cfg.Reps); err != nil {
		return nil, err
	}
	if err := validateSample("x", x); err != nil {
		return nil, err
	}
	if err := validateSample("y", y); err != nil {
		return nil, err
	}
	alt, err := validateAlternative(cfg.Alternative)
	if err != nil {
		return nil, err
	}
	fn, err := cfg.Stat.TwoSample()
	if err != nil {
		return nil, err
	}
	table, err := outcomes.PotentialOutcomes(x, y, cfg.Shift)
	if err != nil {
		return nil, err
	}

	ox, oy := table.Observed()
	observed := fn(ox, oy)
	oriented := alt.Apply(observed)

	src := rng.Get(cfg.Seed)
	sim := simulation{reps: cfg.Reps, workers: cfg.Workers, keep: cfg.KeepDist}
	hits, dist, err := sim.run(src, func() replicator {
		return newRelabeler(table, fn, alt)
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

// relabeler holds the current arrangement of table rows
type relabeler struct {
	table *outcomes.Table
	fn    stats.TwoSampleFunc
	alt   stats.Alternative
	perm  []int
	xbuf  []float64
	ybuf  []float64
}

func newRelabeler(table *outcomes.Table, fn stats.TwoSampleFunc, alt stats.Alternative) *relabeler {
	r := &relabeler{
		table: table,
		fn:    fn,
		alt:   alt,
		perm:  make([]int, table.Len()),
		xbuf:  make([]float64, table.NX),
		ybuf:  make([]float64, table.NY()),
	}
	r.reset()
	return r
}

func (r *relabeler) reset() {
	for i := range r.perm {
		r.perm[i] = i
	}
}

func (r *relabeler) replicate(src *rng.Source) float64 {
	src.ShuffleInts(r.perm)
	r.table.Split(r.perm, r.xbuf, r.ybuf)
	return r.alt.Apply(r.fn(r.xbuf, r.ybuf))
}
