package permute

import (
	"errors"
	"testing"

	"gopermute/adapters/rng"
	"gopermute/domain/core"
	"gopermute/domain/stats"
)

var (
	ciX = []float64{0, 1, 2, 3, 4}
	ciY = []float64{1, 2, 3, 4, 5}
)

func TestTwoSampleConfIntContainsObservedShift(t *testing.T) {
	cfg := DefaultConfIntConfig()
	cfg.Seed = rng.Fixed(42)

	iv, err := TwoSampleConfInt(ciX, ciY, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !iv.Contains(-1) {
		t.Errorf("Expected interval to contain -1, got [%v, %v]", iv.Low, iv.High)
	}
	if iv.Low < -5 || iv.High > 5 {
		t.Errorf("Expected interval within the shift limit, got [%v, %v]", iv.Low, iv.High)
	}

	again, err := TwoSampleConfInt(ciX, ciY, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if again != iv {
		t.Errorf("Expected reproducible interval, got %+v and %+v", iv, again)
	}
}

func TestTwoSampleConfIntOneSided(t *testing.T) {
	tests := []struct {
		side      stats.IntervalSide
		wantLow   float64
		wantHigh  float64
		checkLow  bool
		checkHigh bool
	}{
		{side: stats.IntervalUpper, wantLow: -5, checkLow: true},
		{side: stats.IntervalLower, wantHigh: 5, checkHigh: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.side), func(t *testing.T) {
			cfg := DefaultConfIntConfig()
			cfg.Side = tt.side
			cfg.Seed = rng.Fixed(42)

			iv, err := TwoSampleConfInt(ciX, ciY, cfg)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.checkLow && iv.Low != tt.wantLow {
				t.Errorf("Expected low %v, got %v", tt.wantLow, iv.Low)
			}
			if tt.checkHigh && iv.High != tt.wantHigh {
				t.Errorf("Expected high %v, got %v", tt.wantHigh, iv.High)
			}
			if !iv.Contains(-1) {
				t.Errorf("Expected interval to contain -1, got [%v, %v]", iv.Low, iv.High)
			}
		})
	}
}

func TestTwoSampleConfIntErrors(t *testing.T) {
	tests := []struct {
		name    string
		x, y    []float64
		mutate  func(*ConfIntConfig)
		wantErr error
	}{
		{"level zero", ciX, ciY, func(c *ConfIntConfig) { c.Level = 0 }, core.ErrInvalidConfidence},
		{"level one", ciX, ciY, func(c *ConfIntConfig) { c.Level = 1 }, core.ErrInvalidConfidence},
		{"level above one", ciX, ciY, func(c *ConfIntConfig) { c.Level = 1.5 }, core.ErrInvalidConfidence},
		{"unknown side", ciX, ciY, func(c *ConfIntConfig) { c.Side = "middle" }, core.ErrInvalidInput},
		{"zero reps", ciX, ciY, func(c *ConfIntConfig) { c.Reps = 0 }, core.ErrInvalidReps},
		{"empty y", ciX, nil, nil, core.ErrEmptySample},
		{"statistic without two-sample form", ciX, ciY, func(c *ConfIntConfig) {
			c.Stat = stats.CustomOneSample("first", func(z []float64) float64 { return z[0] })
		}, core.ErrUnknownStatistic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfIntConfig()
			cfg.Reps = 100
			cfg.Seed = rng.Fixed(1)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := TwoSampleConfInt(tt.x, tt.y, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestShiftLimit(t *testing.T) {
	tests := []struct {
		x, y []float64
		want float64
	}{
		{ciX, ciY, 5},
		{[]float64{10}, []float64{1, 2}, 9},
		{[]float64{-3, 3}, []float64{0}, 3},
	}

	for _, tt := range tests {
		if got := shiftLimit(tt.x, tt.y); got != tt.want {
			t.Errorf("shiftLimit(%v, %v): expected %v, got %v", tt.x, tt.y, tt.want, got)
		}
	}
}
