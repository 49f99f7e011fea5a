package permute

import (
	"errors"
	"math"
	"testing"

	"gopermute/adapters/rng"
	"gopermute/domain/core"
	"gopermute/domain/outcomes"
	"gopermute/domain/stats"
)

func TestTwoSampleValidation(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}

	tests := []struct {
		name    string
		x, y    []float64
		mutate  func(*TwoSampleConfig)
		wantErr error
	}{
		{"zero reps", x, y, func(c *TwoSampleConfig) { c.Reps = 0 }, core.ErrInvalidReps},
		{"negative reps", x, y, func(c *TwoSampleConfig) { c.Reps = -5 }, core.ErrInvalidReps},
		{"empty x", nil, y, nil, core.ErrEmptySample},
		{"empty y", x, []float64{}, nil, core.ErrEmptySample},
		{"unknown alternative", x, y, func(c *TwoSampleConfig) { c.Alternative = "sideways" }, core.ErrUnknownAlternative},
		{"function shift without inverse", x, y, func(c *TwoSampleConfig) {
			c.Shift = outcomes.Func(func(v float64) float64 { return v * 2 })
		}, core.ErrMissingInverse},
		{"non-finite constant shift", x, y, func(c *TwoSampleConfig) { c.Shift = outcomes.Constant(math.Inf(1)) }, core.ErrInvalidShift},
		{"one-sample statistic", x, y, func(c *TwoSampleConfig) {
			c.Stat = stats.CustomOneSample("median", func(z []float64) float64 { return z[0] })
		}, core.ErrUnknownStatistic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTwoSampleConfig()
			cfg.Reps = 10
			cfg.Seed = rng.Fixed(1)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			res, err := TwoSample(tt.x, tt.y, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if !core.IsInputError(err) {
				t.Errorf("Expected input error classification for %v", err)
			}
			if res != nil {
				t.Errorf("Expected nil result on error")
			}
		})
	}
}

func TestTwoSampleDeterministic(t *testing.T) {
	x := []float64{2.1, 3.4, 1.9, 5.6, 4.4, 3.3}
	y := []float64{1.0, 0.7, 2.2, 1.8, 2.9}

	for _, stat := range []stats.Statistic{stats.MeanStatistic(), stats.TStatistic()} {
		t.Run(stat.Name(), func(t *testing.T) {
			cfg := DefaultTwoSampleConfig()
			cfg.Reps = 2000
			cfg.Stat = stat
			cfg.KeepDist = true
			cfg.Seed = rng.Fixed(42)

			a, err := TwoSample(x, y, cfg)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			b, err := TwoSample(x, y, cfg)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if a.PValue != b.PValue {
				t.Errorf("Expected identical p-values, got %v and %v", a.PValue, b.PValue)
			}
			if len(a.Distribution) != cfg.Reps {
				t.Fatalf("Expected %d replications, got %d", cfg.Reps, len(a.Distribution))
			}
			for i := range a.Distribution {
				if a.Distribution[i] != b.Distribution[i] {
					t.Fatalf("Distributions diverge at %d: %v vs %v", i, a.Distribution[i], b.Distribution[i])
				}
			}
			if a.PValue < 0 || a.PValue > 1 {
				t.Errorf("Expected p-value in [0, 1], got %v", a.PValue)
			}
		})
	}
}

func TestTwoSampleHitsMatchDistribution(t *testing.T) {
	cfg := DefaultTwoSampleConfig()
	cfg.Reps = 500
	cfg.KeepDist = true
	cfg.Alternative = stats.TwoSided
	cfg.Seed = rng.Fixed(7)

	res, err := TwoSample([]float64{1, 4, 2, 8}, []float64{5, 7, 3}, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	hits := 0
	for _, v := range res.Distribution {
		if v < 0 {
			t.Fatalf("Two-sided replication should be non-negative, got %v", v)
		}
		if v >= res.Oriented {
			hits++
		}
	}
	if hits != res.Hits {
		t.Errorf("Expected %d hits, got %d", hits, res.Hits)
	}
	if res.PValue != float64(hits)/float64(cfg.Reps) {
		t.Errorf("Expected p-value %v, got %v", float64(hits)/float64(cfg.Reps), res.PValue)
	}
}

func TestTwoSampleAlternatives(t *testing.T) {
	x := []float64{3, 5, 4, 6}
	y := []float64{7, 9, 8}

	results := make(map[stats.Alternative]*Result)
	for _, alt := range []stats.Alternative{stats.Greater, stats.Less, stats.TwoSided} {
		cfg := DefaultTwoSampleConfig()
		cfg.Reps = 200
		cfg.Alternative = alt
		cfg.Seed = rng.Fixed(3)
		res, err := TwoSample(x, y, cfg)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", alt, err)
		}
		results[alt] = res
	}

	g, l, ts := results[stats.Greater], results[stats.Less], results[stats.TwoSided]
	if g.Observed != l.Observed || g.Observed != ts.Observed {
		t.Errorf("Observed statistic should not depend on the alternative: %v %v %v", g.Observed, l.Observed, ts.Observed)
	}
	if l.Oriented != -g.Oriented {
		t.Errorf("Expected less orientation %v, got %v", -g.Oriented, l.Oriented)
	}
	if ts.Oriented != math.Abs(g.Observed) {
		t.Errorf("Expected two-sided orientation %v, got %v", math.Abs(g.Observed), ts.Oriented)
	}
	if g.Observed != 4.5-8 {
		t.Errorf("Expected observed %v, got %v", 4.5-8, g.Observed)
	}
}

func TestTwoSampleSeparatedGroups(t *testing.T) {
	x := []float64{10, 11, 12, 13, 14, 15}
	y := []float64{0, 1, 2, 3, 4, 5}

	cfg := DefaultTwoSampleConfig()
	cfg.Reps = 10000
	cfg.Seed = rng.Fixed(2024)

	res, err := TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// only 1 of 924 relabelings is as extreme
	if res.PValue > 0.01 {
		t.Errorf("Expected a small p-value, got %v", res.PValue)
	}

	cfg.Alternative = stats.Less
	res, err = TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.PValue < 0.99 {
		t.Errorf("Expected a p-value near 1, got %v", res.PValue)
	}
}

func TestTwoSampleConstantData(t *testing.T) {
	cfg := DefaultTwoSampleConfig()
	cfg.Reps = 100
	cfg.Seed = rng.Fixed(1)

	res, err := TwoSample([]float64{1, 1, 1}, []float64{1, 1}, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.PValue != 1 {
		t.Errorf("Expected p-value 1 when every arrangement ties, got %v", res.PValue)
	}
	if res.Distribution != nil {
		t.Errorf("Expected no distribution without KeepDist")
	}
}

func TestTwoSampleZeroShiftMatchesUnshifted(t *testing.T) {
	x := []float64{1.5, 2.5, 0.5}
	y := []float64{3.5, 2.0, 4.0, 1.0}

	cfg := DefaultTwoSampleConfig()
	cfg.Reps = 300
	cfg.KeepDist = true
	cfg.Seed = rng.Fixed(11)
	plain, err := TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cfg.Shift = outcomes.Constant(0)
	shifted, err := TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if plain.PValue != shifted.PValue || plain.Observed != shifted.Observed {
		t.Errorf("Constant(0) should reproduce the unshifted test: %+v vs %+v", plain, shifted)
	}
}

func TestTwoSampleSharedSeedAdvances(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 3, 4, 5, 6}

	cfg := DefaultTwoSampleConfig()
	cfg.Reps = 50
	cfg.KeepDist = true
	cfg.Seed = rng.Shared(rng.New(5, 6))

	first, err := TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := TwoSample(x, y, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	same := true
	for i := range first.Distribution {
		if first.Distribution[i] != second.Distribution[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("Expected a shared generator to advance between calls")
	}
}
