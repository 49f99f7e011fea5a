package permute

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gopermute/adapters/rng"
	"gopermute/domain/core"
)

// replicator evaluates the oriented statistic on one random rearrangement.
// Implementations own their scratch buffers and are used by one goroutine.
type replicator interface {
	// reset returns the replicator to its initial arrangement
	reset()
	replicate(src *rng.Source) float64
}

// simulation is the Monte Carlo loop shared by every test.
type simulation struct {
	reps    int
	workers int
	keep    bool
}

// run draws reps replications and counts those >= observed.
//
// Sequential runs (workers <= 1) thread the single caller-owned stream
// through every replication, and rearrangements accumulate from one to the
// next. Parallel runs draw one base word from src, and replication i starts
// from the initial arrangement on rng.Substream(base, i), so the distribution
// is identical for any worker count. workers only selects the scheme and the
// chunking; at most GOMAXPROCS chunks run at once.
//
// A panic inside a statistic is returned as core.ErrStatistic.
func (s simulation) run(src *rng.Source, newReplicator func() replicator, observed float64) (int, []float64, error) {
	var dist []float64
	if s.keep {
		dist = make([]float64, s.reps)
	}

	if s.workers <= 1 || s.reps < 2 {
		hits := 0
		err := recoverStatistic(func() {
			r := newReplicator()
			for i := 0; i < s.reps; i++ {
				v := r.replicate(src)
				if s.keep {
					dist[i] = v
				}
				if v >= observed {
					hits++
				}
			}
		})
		if err != nil {
			return 0, nil, err
		}
		return hits, dist, nil
	}

	base := src.Uint64()
	workers := s.workers
	if workers > s.reps {
		workers = s.reps
	}
	chunk := (s.reps + workers - 1) / workers
	counts := make([]int, workers)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for w := 0; w < workers; w++ {
		start, end := w*chunk, (w+1)*chunk
		if end > s.reps {
			end = s.reps
		}
		g.Go(func() error {
			return recoverStatistic(func() {
				r := newReplicator()
				for i := start; i < end; i++ {
					r.reset()
					v := r.replicate(rng.Substream(base, uint64(i)))
					if s.keep {
						dist[i] = v
					}
					if v >= observed {
						counts[w]++
					}
				}
			})
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	hits := 0
	for _, c := range counts {
		hits += c
	}
	return hits, dist, nil
}

func recoverStatistic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", core.ErrStatistic, r)
		}
	}()
	fn()
	return nil
}
