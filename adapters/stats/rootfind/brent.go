// Package rootfind locates a zero of a scalar function inside a bracket.
package rootfind

import (
	"fmt"
	"math"

	"gopermute/domain/core"
)

// Default tolerances and iteration cap for Brentq.
const (
	DefaultXTol    = 2e-12
	DefaultRTol    = 4 * 2.220446049250313e-16
	DefaultMaxIter = 100
)

// Options control the termination of Brentq. Zero fields take the defaults.
type Options struct {
	XTol    float64
	RTol    float64
	MaxIter int
}

func (o Options) withDefaults() Options {
	if o.XTol <= 0 {
		o.XTol = DefaultXTol
	}
	if o.RTol <= 0 {
		o.RTol = DefaultRTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	return o
}

// Brentq finds x in the bracket [a, b] (either order) with f(x) = 0 using
// Brent's method: inverse quadratic or secant steps, falling back to
// bisection whenever they would not shrink the bracket fast enough.
//
// f(a) and f(b) must have opposite signs, otherwise a core.ErrBracket error is
// returned. f need not be continuous; for a step function the result is the
// location of the sign change to within tolerance.
func Brentq(f func(float64) float64, a, b float64, opts Options) (float64, error) {
	opts = opts.withDefaults()

	xpre, xcur := a, b
	fpre, fcur := f(xpre), f(xcur)
	var xblk, fblk, spre, scur float64

	if fpre == 0 {
		return xpre, nil
	}
	if fcur == 0 {
		return xcur, nil
	}
	if math.Signbit(fpre) == math.Signbit(fcur) || math.IsNaN(fpre) || math.IsNaN(fcur) {
		return math.NaN(), core.NewBracketError(a, fpre, b, fcur)
	}

	for i := 0; i < opts.MaxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (opts.XTol + opts.RTol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
	}

	return xcur, fmt.Errorf("%w: after %d iterations, x=%g", core.ErrNoConvergence, opts.MaxIter, xcur)
}
