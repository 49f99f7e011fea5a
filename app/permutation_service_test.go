package app

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopermute/adapters/rng"
	"gopermute/adapters/stats/permute"
	"gopermute/domain/core"
	"gopermute/domain/stats"
	"gopermute/internal"
	"gopermute/internal/config"
	"gopermute/internal/errors"
	"gopermute/internal/testkit"
)

func newTestService(t *testing.T, mutate func(*config.PermuteConfig)) (*PermutationService, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default().Permute
	cfg.DefaultReps = 2000
	if mutate != nil {
		mutate(&cfg)
	}
	var buf bytes.Buffer
	return NewPermutationService(cfg, internal.NewLoggerTo(&buf, internal.LogLevelInfo)), &buf
}

func seedPtr(v int64) *int64 { return &v }

func TestTwoSampleService(t *testing.T) {
	svc, logs := newTestService(t, nil)
	x, y := testkit.NewTestKit(1).ShiftedPair("two-sample", 30, 30, 2)

	res, err := svc.TwoSample(context.Background(), TwoSampleRequest{X: x, Y: y, Seed: seedPtr(42)})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "mean", res.Statistic)
	assert.Equal(t, "greater", res.Alternative)
	assert.Equal(t, 2000, res.Reps, "default reps should apply")
	assert.Less(t, res.PValue, 0.05)
	assert.LessOrEqual(t, res.PValueCI.Low, res.PValue)
	assert.GreaterOrEqual(t, res.PValueCI.High, res.PValue)
	require.NotNil(t, res.Seed)
	assert.Equal(t, int64(42), *res.Seed)
	assert.Contains(t, logs.String(), "two_sample finished")

	again, err := svc.TwoSample(context.Background(), TwoSampleRequest{X: x, Y: y, Seed: seedPtr(42)})
	require.NoError(t, err)
	assert.Equal(t, res.PValue, again.PValue)
	assert.NotEqual(t, res.RunID, again.RunID)
}

func TestTwoSampleServiceShift(t *testing.T) {
	svc, _ := newTestService(t, nil)
	shift := 0.0
	res, err := svc.TwoSample(context.Background(), TwoSampleRequest{
		X:           []float64{1, 2, 3},
		Y:           []float64{4, 5, 6},
		Shift:       &shift,
		Alternative: "less",
		Reps:        100,
		Seed:        seedPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, -3.0, res.Observed)
	assert.Equal(t, 3.0, res.Oriented)
}

func TestServiceInputErrors(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.PermuteConfig) {
		c.MaxReps = 5000
		c.MaxSample = 10
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		run      func() error
		wantCode string
	}{
		{"unknown statistic", func() error {
			_, err := svc.TwoSample(ctx, TwoSampleRequest{X: []float64{1}, Y: []float64{2}, Stat: "median"})
			return err
		}, errors.CodeInvalidInput},
		{"unknown alternative", func() error {
			_, err := svc.OneSample(ctx, OneSampleRequest{X: []float64{1, 2}, Alternative: "up"})
			return err
		}, errors.CodeInvalidInput},
		{"pairing", func() error {
			_, err := svc.OneSample(ctx, OneSampleRequest{X: []float64{1, 2}, Y: []float64{1}})
			return err
		}, errors.CodeInvalidInput},
		{"empty sample", func() error {
			_, err := svc.TwoSample(ctx, TwoSampleRequest{X: []float64{1}, Y: nil})
			return err
		}, errors.CodeInvalidInput},
		{"too many reps", func() error {
			_, err := svc.Corr(ctx, CorrRequest{X: []float64{1, 2}, Y: []float64{2, 1}, Reps: 6000})
			return err
		}, errors.CodeLimitExceeded},
		{"sample too large", func() error {
			_, err := svc.Corr(ctx, CorrRequest{X: testkit.Sequence(0, 6), Y: testkit.Sequence(0, 6)})
			return err
		}, errors.CodeLimitExceeded},
		{"bad level", func() error {
			_, err := svc.ConfInt(ctx, ConfIntRequest{X: []float64{1, 2}, Y: []float64{3, 4}, Level: 2})
			return err
		}, errors.CodeInvalidInput},
		{"bad side", func() error {
			_, err := svc.ConfInt(ctx, ConfIntRequest{X: []float64{1, 2}, Y: []float64{3, 4}, Side: "left"})
			return err
		}, errors.CodeInvalidInput},
		{"binom bad counts", func() error {
			_, err := svc.BinomConfInt(ctx, BinomRequest{N: 3, K: 4})
			return err
		}, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestConfIntService(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res, err := svc.ConfInt(context.Background(), ConfIntRequest{
		X:    testkit.Sequence(0, 5),
		Y:    testkit.Sequence(1, 5),
		Reps: 10000,
		Seed: seedPtr(42),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.95, res.Level)
	assert.Equal(t, "two-sided", res.Side)
	assert.LessOrEqual(t, res.Low, -1.0)
	assert.GreaterOrEqual(t, res.High, -1.0)
}

func TestCorrService(t *testing.T) {
	svc, _ := newTestService(t, nil)
	x, y := testkit.NewTestKit(5).Linear("corr", 40, 1, 0.2)

	res, err := svc.Corr(context.Background(), CorrRequest{X: x, Y: y, Reps: 1000, Seed: seedPtr(3)})
	require.NoError(t, err)
	assert.Greater(t, res.Observed, 0.8)
	assert.Less(t, res.RightPValue, 0.01)
	assert.Len(t, res.Distribution, 1000)
}

func TestBinomService(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res, err := svc.BinomConfInt(context.Background(), BinomRequest{N: 10, K: 5, Level: 0.95})
	require.NoError(t, err)
	assert.InDelta(t, 0.187086, res.Low, 1e-5)
	assert.InDelta(t, 0.812914, res.High, 1e-5)
	assert.Equal(t, "two-sided", res.Side)
}

func TestBaseSeedIsReported(t *testing.T) {
	base := int64(1000)
	svc, _ := newTestService(t, func(c *config.PermuteConfig) { c.BaseSeed = &base })

	res, err := svc.OneSample(context.Background(), OneSampleRequest{X: []float64{1, -2, 3, 4}, Reps: 200})
	require.NoError(t, err)
	require.NotNil(t, res.Seed, "a derived seed should be reported so the run can be replayed")

	replay, err := svc.OneSample(context.Background(), OneSampleRequest{X: []float64{1, -2, 3, 4}, Reps: 200, KeepDist: true, Seed: res.Seed})
	require.NoError(t, err)
	assert.Equal(t, res.PValue, replay.PValue)
}

func TestUnseededRunReportsNoSeed(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res, err := svc.OneSample(context.Background(), OneSampleRequest{X: []float64{1, 2}, Reps: 10})
	require.NoError(t, err)
	assert.Nil(t, res.Seed)
}

func TestBusyWhenSlotsExhausted(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.PermuteConfig) {
		c.MaxConcurrent = 1
		c.QueueTimeout = 20 * time.Millisecond
	})
	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	_, err := svc.TwoSample(context.Background(), TwoSampleRequest{X: []float64{1}, Y: []float64{2}, Reps: 10})
	require.Error(t, err)
	assert.Equal(t, errors.CodeBusy, errors.GetCode(err))
}

func TestCancelledContextWhileWaiting(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.PermuteConfig) { c.MaxConcurrent = 1 })
	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Corr(ctx, CorrRequest{X: []float64{1, 2}, Y: []float64{1, 2}, Reps: 10})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errors.CodeBusy, errors.GetCode(err))
}

func TestWorkerResolution(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.PermuteConfig) { c.Workers = 3 })
	assert.Equal(t, 3, svc.workers(0))
	assert.Equal(t, 1, svc.workers(1))
	assert.Equal(t, 64, svc.workers(64), "requests are not lowered to the host CPU count")

	unset, _ := newTestService(t, func(c *config.PermuteConfig) { c.Workers = 0 })
	assert.Equal(t, 1, unset.workers(0))
}

func TestParallelReplayIndependentOfHostCPUs(t *testing.T) {
	svc, _ := newTestService(t, nil)
	x, y := testkit.NewTestKit(3).ShiftedPair("replay", 12, 12, 0.3)
	req := TwoSampleRequest{X: x, Y: y, Reps: 2000, Seed: seedPtr(42), Workers: 4, KeepDist: true}

	wide, err := svc.TwoSample(context.Background(), req)
	require.NoError(t, err)

	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)
	narrow, err := svc.TwoSample(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 4, wide.Workers)
	assert.Equal(t, 4, narrow.Workers)
	assert.Equal(t, wide.Hits, narrow.Hits)
	assert.Equal(t, wide.Distribution, narrow.Distribution)

	// the reported seed and workers replay through the library
	replay, err := permute.TwoSample(x, y, permute.TwoSampleConfig{
		Reps:     2000,
		Stat:     stats.MeanStatistic(),
		KeepDist: true,
		Seed:     rng.Fixed(*narrow.Seed),
		Workers:  narrow.Workers,
	})
	require.NoError(t, err)
	assert.Equal(t, narrow.Distribution, replay.Distribution)
}

func TestClientRunID(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	id := core.NewRunID()
	res, err := svc.OneSample(ctx, OneSampleRequest{RunID: id.String(), X: []float64{1, 2, 3}, Reps: 50, Seed: seedPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, id, res.RunID)

	_, err = svc.BinomConfInt(ctx, BinomRequest{RunID: "run-7", N: 10, K: 5})
	require.ErrorIs(t, err, core.ErrInvalidRunID)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
