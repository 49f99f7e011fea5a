package app

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"gopermute/adapters/rng"
	"gopermute/adapters/stats/binom"
	"gopermute/adapters/stats/permute"
	"gopermute/domain/core"
	"gopermute/domain/outcomes"
	"gopermute/domain/stats"
	"gopermute/internal"
	"gopermute/internal/config"
	"gopermute/internal/errors"
	"gopermute/internal/metrics"
)

// PValueLevel is the confidence level of the Monte Carlo error bounds
// reported next to every p-value
const PValueLevel = 0.99

// PermutationService runs randomization tests on behalf of the HTTP and CLI
// front ends. It applies request limits, gates concurrency, assigns run IDs,
// and records logs and metrics. The statistics themselves live in the
// permute and binom packages.
type PermutationService struct {
	cfg    config.PermuteConfig
	sem    *semaphore.Weighted
	logger *internal.Logger
}

// NewPermutationService creates a service allowing cfg.MaxConcurrent tests
// at a time
func NewPermutationService(cfg config.PermuteConfig, logger *internal.Logger) *PermutationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PermutationService{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: logger.With("permute"),
	}
}

// TwoSampleRequest defines the inputs for a two-sample test
type TwoSampleRequest struct {
	// RunID, when set, must be a UUID and replaces the generated run ID
	RunID       string
	X           []float64
	Y           []float64
	Reps        int
	Stat        string
	Alternative string
	Seed        *int64
	// Shift, when set, tests the hypothesis that treatment adds this constant
	Shift    *float64
	KeepDist bool
	Workers  int
}

// OneSampleRequest defines the inputs for a one-sample or paired test
type OneSampleRequest struct {
	RunID       string
	X           []float64
	Y           []float64
	Reps        int
	Stat        string
	Alternative string
	Seed        *int64
	KeepDist    bool
	Workers     int
}

// ConfIntRequest defines the inputs for a shift confidence interval
type ConfIntRequest struct {
	RunID   string
	X       []float64
	Y       []float64
	Level   float64
	Side    string
	Reps    int
	Stat    string
	Seed    *int64
	Workers int
}

// CorrRequest defines the inputs for a correlation test
type CorrRequest struct {
	RunID   string
	X       []float64
	Y       []float64
	Reps    int
	Seed    *int64
	Workers int
}

// BinomRequest defines the inputs for a binomial confidence interval
type BinomRequest struct {
	RunID string
	N     int
	K     int
	Level float64
	Side  string
}

// TestResult is the response for one- and two-sample tests
type TestResult struct {
	RunID       core.RunID     `json:"run_id"`
	Test        core.TestKind  `json:"test"`
	Statistic   string         `json:"statistic"`
	Alternative string         `json:"alternative"`
	Seed        *int64         `json:"seed,omitempty"`
	Workers     int            `json:"workers"`
	PValueCI    binom.Interval `json:"p_value_ci"`
	RuntimeMs   int64          `json:"runtime_ms"`
	permute.Result
}

// ConfIntResult is the response for a shift confidence interval
type ConfIntResult struct {
	RunID     core.RunID    `json:"run_id"`
	Test      core.TestKind `json:"test"`
	Level     float64       `json:"level"`
	Side      string        `json:"side"`
	Seed      *int64        `json:"seed,omitempty"`
	Workers   int           `json:"workers"`
	RuntimeMs int64         `json:"runtime_ms"`
	permute.Interval
}

// CorrResult is the response for a correlation test
type CorrResult struct {
	RunID     core.RunID    `json:"run_id"`
	Test      core.TestKind `json:"test"`
	Seed      *int64        `json:"seed,omitempty"`
	Workers   int           `json:"workers"`
	RuntimeMs int64         `json:"runtime_ms"`
	permute.CorrResult
}

// BinomResult is the response for a binomial confidence interval
type BinomResult struct {
	RunID core.RunID    `json:"run_id"`
	Test  core.TestKind `json:"test"`
	Level float64       `json:"level"`
	Side  string        `json:"side"`
	binom.Interval
}

// TwoSample runs a two-sample permutation test
func (s *PermutationService) TwoSample(ctx context.Context, req TwoSampleRequest) (*TestResult, error) {
	reps, err := s.checkLimits(req.Reps, len(req.X)+len(req.Y))
	if err != nil {
		return nil, err
	}
	stat, alt, err := parseStatAndAlternative(req.Stat, req.Alternative)
	if err != nil {
		return nil, err
	}
	shift := outcomes.NoShift()
	if req.Shift != nil {
		shift = outcomes.Constant(*req.Shift)
	}

	runID, err := resolveRunID(req.RunID)
	if err != nil {
		return nil, err
	}
	seed, seedValue := s.resolveSeed(runID, req.Seed)
	workers := s.workers(req.Workers)
	s.logger.Debug("run %s: two-sample nx=%d ny=%d stat=%s alternative=%s shift=%s", runID, len(req.X), len(req.Y), stat.Name(), alt, shift)

	var res *permute.Result
	elapsed, err := s.execute(ctx, runID, core.TestTwoSample, reps, func() error {
		var err error
		res, err = permute.TwoSample(req.X, req.Y, permute.TwoSampleConfig{
			Reps:        reps,
			Stat:        stat,
			Alternative: alt,
			KeepDist:    req.KeepDist,
			Seed:        seed,
			Shift:       shift,
			Workers:     workers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.testResult(runID, core.TestTwoSample, stat, alt, seedValue, workers, elapsed, res)
}

// OneSample runs a one-sample or paired permutation test
func (s *PermutationService) OneSample(ctx context.Context, req OneSampleRequest) (*TestResult, error) {
	reps, err := s.checkLimits(req.Reps, len(req.X)+len(req.Y))
	if err != nil {
		return nil, err
	}
	stat, alt, err := parseStatAndAlternative(req.Stat, req.Alternative)
	if err != nil {
		return nil, err
	}

	runID, err := resolveRunID(req.RunID)
	if err != nil {
		return nil, err
	}
	seed, seedValue := s.resolveSeed(runID, req.Seed)
	workers := s.workers(req.Workers)
	s.logger.Debug("run %s: one-sample n=%d paired=%t stat=%s alternative=%s", runID, len(req.X), req.Y != nil, stat.Name(), alt)

	var res *permute.Result
	elapsed, err := s.execute(ctx, runID, core.TestOneSample, reps, func() error {
		var err error
		res, err = permute.OneSample(req.X, req.Y, permute.OneSampleConfig{
			Reps:        reps,
			Stat:        stat,
			Alternative: alt,
			KeepDist:    req.KeepDist,
			Seed:        seed,
			Workers:     workers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.testResult(runID, core.TestOneSample, stat, alt, seedValue, workers, elapsed, res)
}

// ConfInt computes a confidence interval for a constant shift
func (s *PermutationService) ConfInt(ctx context.Context, req ConfIntRequest) (*ConfIntResult, error) {
	reps, err := s.checkLimits(req.Reps, len(req.X)+len(req.Y))
	if err != nil {
		return nil, err
	}
	stat, err := stats.Lookup(req.Stat)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	side, err := stats.ParseIntervalSide(req.Side)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	level := req.Level
	if level == 0 {
		level = permute.DefaultLevel
	}

	runID, err := resolveRunID(req.RunID)
	if err != nil {
		return nil, err
	}
	seed, seedValue := s.resolveSeed(runID, req.Seed)
	workers := s.workers(req.Workers)
	s.logger.Debug("run %s: conf-int level=%g side=%s stat=%s", runID, level, side, stat.Name())

	var iv permute.Interval
	elapsed, err := s.execute(ctx, runID, core.TestConfInt, reps, func() error {
		var err error
		iv, err = permute.TwoSampleConfInt(req.X, req.Y, permute.ConfIntConfig{
			Level:   level,
			Side:    side,
			Seed:    seed,
			Reps:    reps,
			Stat:    stat,
			Workers: workers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ConfIntResult{
		RunID:     runID,
		Test:      core.TestConfInt,
		Level:     level,
		Side:      string(side),
		Seed:      seedValue,
		Workers:   workers,
		RuntimeMs: elapsed.Milliseconds(),
		Interval:  iv,
	}, nil
}

// Corr runs a permutation test for Pearson correlation
func (s *PermutationService) Corr(ctx context.Context, req CorrRequest) (*CorrResult, error) {
	reps, err := s.checkLimits(req.Reps, len(req.X)+len(req.Y))
	if err != nil {
		return nil, err
	}

	runID, err := resolveRunID(req.RunID)
	if err != nil {
		return nil, err
	}
	seed, seedValue := s.resolveSeed(runID, req.Seed)
	workers := s.workers(req.Workers)
	s.logger.Debug("run %s: corr n=%d", runID, len(req.X))

	var res *permute.CorrResult
	elapsed, err := s.execute(ctx, runID, core.TestCorrelation, reps, func() error {
		var err error
		res, err = permute.Corr(req.X, req.Y, permute.CorrConfig{
			Reps:    reps,
			Seed:    seed,
			Workers: workers,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &CorrResult{
		RunID:      runID,
		Test:       core.TestCorrelation,
		Seed:       seedValue,
		Workers:    workers,
		RuntimeMs:  elapsed.Milliseconds(),
		CorrResult: *res,
	}, nil
}

// BinomConfInt computes a Clopper-Pearson interval. It draws no random
// numbers and takes no test slot.
func (s *PermutationService) BinomConfInt(ctx context.Context, req BinomRequest) (*BinomResult, error) {
	side, err := stats.ParseIntervalSide(req.Side)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	level := req.Level
	if level == 0 {
		level = binom.DefaultLevel
	}

	runID, err := resolveRunID(req.RunID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	iv, err := binom.ConfInterval(req.N, req.K, level, side)
	outcome := outcomeOf(err)
	metrics.ObserveTest(string(core.TestBinomConfInt), outcome, 0, time.Since(start))
	if err != nil {
		s.logger.Warn("run %s: %s failed: %v", runID, core.TestBinomConfInt, err)
		return nil, classify(err)
	}
	return &BinomResult{
		RunID:    runID,
		Test:     core.TestBinomConfInt,
		Level:    level,
		Side:     string(side),
		Interval: iv,
	}, nil
}

// execute waits for a test slot, runs fn, and records the outcome. The
// context only bounds the wait; a started simulation always completes.
func (s *PermutationService) execute(ctx context.Context, runID core.RunID, test core.TestKind, reps int, fn func() error) (time.Duration, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.queueTimeout())
	defer cancel()
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		metrics.ObserveRejected(string(test))
		s.logger.Warn("run %s: %s rejected: %v", runID, test, err)
		return 0, errors.Busy(err)
	}
	defer s.sem.Release(1)
	done := metrics.TrackInFlight()
	defer done()

	s.logger.Info("run %s: %s started (reps=%d)", runID, test, reps)
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.ObserveTest(string(test), outcomeOf(err), reps, elapsed)
	if err != nil {
		s.logger.Warn("run %s: %s failed after %v: %v", runID, test, elapsed, err)
		return elapsed, classify(err)
	}
	s.logger.Info("run %s: %s finished in %v", runID, test, elapsed)
	return elapsed, nil
}

func (s *PermutationService) testResult(runID core.RunID, test core.TestKind, stat stats.Statistic, alt stats.Alternative,
	seed *int64, workers int, elapsed time.Duration, res *permute.Result) (*TestResult, error) {
	ci, err := binom.PValueInterval(res.Hits, res.Reps, PValueLevel)
	if err != nil {
		return nil, errors.Wrap(err, "p-value bounds")
	}
	return &TestResult{
		RunID:       runID,
		Test:        test,
		Statistic:   stat.Name(),
		Alternative: string(alt),
		Seed:        seed,
		Workers:     workers,
		PValueCI:    ci,
		RuntimeMs:   elapsed.Milliseconds(),
		Result:      *res,
	}, nil
}

// checkLimits fills in the default replication count and enforces the
// configured ceilings
func (s *PermutationService) checkLimits(reps, sampleSize int) (int, error) {
	if reps == 0 {
		reps = s.cfg.DefaultReps
	}
	if s.cfg.MaxReps > 0 && reps > s.cfg.MaxReps {
		return 0, errors.LimitExceeded("reps", reps, s.cfg.MaxReps)
	}
	if s.cfg.MaxSample > 0 && sampleSize > s.cfg.MaxSample {
		return 0, errors.LimitExceeded("sample size", sampleSize, s.cfg.MaxSample)
	}
	return reps, nil
}

// resolveRunID accepts a client-supplied run ID or generates one
func resolveRunID(raw string) (core.RunID, error) {
	if core.ID(raw).IsEmpty() {
		return core.NewRunID(), nil
	}
	id, err := core.ParseRunID(raw)
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	return id, nil
}

// resolveSeed turns an optional request seed into a generator seed and the
// value to report. Without a request seed, a configured base seed yields a
// replayable seed derived from the run ID.
func (s *PermutationService) resolveSeed(runID core.RunID, requested *int64) (rng.Seed, *int64) {
	if requested != nil {
		v := *requested
		return rng.Fixed(v), &v
	}
	if s.cfg.BaseSeed != nil {
		seed := rng.NamedSeed(runID.String(), *s.cfg.BaseSeed)
		v, _ := seed.Value()
		return seed, &v
	}
	return rng.Unseeded(), nil
}

// workers resolves the worker count that selects the sampling scheme. It is
// never lowered to fit the host: a count above 1 picks the sub-stream scheme
// and must replay identically everywhere. The sampler bounds goroutines itself.
func (s *PermutationService) workers(requested int) int {
	if requested > 0 {
		return requested
	}
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return 1
}

func (s *PermutationService) queueTimeout() time.Duration {
	if s.cfg.QueueTimeout > 0 {
		return s.cfg.QueueTimeout
	}
	return 30 * time.Second
}

func parseStatAndAlternative(statName, altName string) (stats.Statistic, stats.Alternative, error) {
	stat, err := stats.Lookup(statName)
	if err != nil {
		return stats.Statistic{}, "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	alt, err := stats.ParseAlternative(altName)
	if err != nil {
		return stats.Statistic{}, "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	return stat, alt, nil
}

// classify maps domain errors onto application error codes
func classify(err error) error {
	switch {
	case core.IsInputError(err):
		return errors.WithCode(errors.CodeInvalidInput, err)
	case core.IsSolverError(err):
		return errors.SolverFailure(err)
	default:
		return errors.Wrap(err, "permutation test failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case core.IsInputError(err):
		return metrics.OutcomeInvalid
	case core.IsSolverError(err):
		return metrics.OutcomeSolver
	default:
		return metrics.OutcomeError
	}
}
