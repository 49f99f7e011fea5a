package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidShift       = fmt.Errorf("%w: bad shift specification", ErrInvalidInput)
	ErrMissingInverse     = fmt.Errorf("%w: shift function requires an inverse", ErrInvalidInput)
	ErrPairing            = fmt.Errorf("%w: x and y must be pairs", ErrInvalidInput)
	ErrInvalidReps        = fmt.Errorf("%w: reps must be positive", ErrInvalidInput)
	ErrEmptySample        = fmt.Errorf("%w: sample must not be empty", ErrInvalidInput)
	ErrInvalidConfidence  = fmt.Errorf("%w: confidence level must be in (0, 1)", ErrInvalidInput)
	ErrUnknownStatistic   = fmt.Errorf("%w: unknown statistic", ErrInvalidInput)
	ErrUnknownAlternative = fmt.Errorf("%w: unknown alternative", ErrInvalidInput)
	ErrInvalidRunID       = fmt.Errorf("%w: malformed run ID", ErrInvalidInput)

	// ErrStatistic reports a statistic that panicked during resampling
	ErrStatistic = errors.New("statistic evaluation failed")

	// Root-finding errors
	ErrSolver        = errors.New("root finding failed")
	ErrBracket       = fmt.Errorf("%w: f(a) and f(b) must have different signs", ErrSolver)
	ErrNoConvergence = fmt.Errorf("%w: maximum iterations exceeded", ErrSolver)
)

// Error constructors with context
func NewInputError(base error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

func NewBracketError(a, fa, b, fb float64) error {
	return fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrBracket, a, fa, b, fb)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsSolverError(err error) bool {
	return errors.Is(err, ErrSolver)
}
