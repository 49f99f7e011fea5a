// Package metrics exposes Prometheus instruments for permutation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeSolver   = "solver_error"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// testsTotal counts finished tests by kind and outcome
	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "permute_tests_total",
		Help: "Total permutation tests by test kind and outcome",
	}, []string{"test", "outcome"})

	// replicationsTotal counts Monte Carlo replications requested by successful tests
	replicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "permute_replications_total",
		Help: "Total replications drawn by test kind",
	}, []string{"test"})

	// testDuration tracks wall time per test
	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "permute_test_duration_seconds",
		Help:    "Permutation test duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
	}, []string{"test"})

	// inFlight is the number of tests holding a slot
	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "permute_tests_in_flight",
		Help: "Permutation tests currently running",
	})
)

// ObserveTest records one finished test. reps is only counted for OutcomeOK.
func ObserveTest(test, outcome string, reps int, elapsed time.Duration) {
	testsTotal.WithLabelValues(test, outcome).Inc()
	if outcome == OutcomeOK && reps > 0 {
		replicationsTotal.WithLabelValues(test).Add(float64(reps))
	}
	testDuration.WithLabelValues(test).Observe(elapsed.Seconds())
}

// ObserveRejected records a test turned away before it ran
func ObserveRejected(test string) {
	testsTotal.WithLabelValues(test, OutcomeRejected).Inc()
}

// TrackInFlight increments the in-flight gauge and returns its decrement
func TrackInFlight() func() {
	inFlight.Inc()
	return inFlight.Dec
}
