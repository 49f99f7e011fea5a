package stats

import (
	"math"

	"gopermute/domain/core"
)

// Alternative orients a statistic so that "more extreme" is always the right tail.
type Alternative string

const (
	Greater  Alternative = "greater"
	Less     Alternative = "less"
	TwoSided Alternative = "two-sided"
)

// ParseAlternative validates an alternative hypothesis name
func ParseAlternative(s string) (Alternative, error) {
	switch a := Alternative(s); a {
	case Greater, Less, TwoSided:
		return a, nil
	case "":
		return Greater, nil
	}
	return "", core.NewInputError(core.ErrUnknownAlternative, "%q", s)
}

// Apply transforms a raw statistic value: greater is the identity, less
// negates, two-sided takes the absolute value.
func (a Alternative) Apply(v float64) float64 {
	switch a {
	case Less:
		return -v
	case TwoSided:
		return math.Abs(v)
	default:
		return v
	}
}

// Valid reports whether a is one of the three known alternatives
func (a Alternative) Valid() bool {
	return a == Greater || a == Less || a == TwoSided
}

// IntervalSide selects which confidence bounds are solved for.
type IntervalSide string

const (
	IntervalTwoSided IntervalSide = "two-sided"
	IntervalLower    IntervalSide = "lower"
	IntervalUpper    IntervalSide = "upper"
)

// ParseIntervalSide validates an interval side name
func ParseIntervalSide(s string) (IntervalSide, error) {
	switch side := IntervalSide(s); side {
	case IntervalTwoSided, IntervalLower, IntervalUpper:
		return side, nil
	case "":
		return IntervalTwoSided, nil
	}
	return "", core.NewInputError(core.ErrUnknownAlternative, "interval side %q", s)
}

func (s IntervalSide) Valid() bool {
	return s == IntervalTwoSided || s == IntervalLower || s == IntervalUpper
}
