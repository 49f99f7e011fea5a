package outcomes

import (
	"gonum.org/v1/gonum/floats"

	"gopermute/domain/core"
)

// Table holds one row per unit: the first NX rows are the original x-units,
// the rest the original y-units. Treatment[:NX] is always the observed x and
// Control[NX:] the observed y.
type Table struct {
	Treatment []float64
	Control   []float64
	NX        int
}

// PotentialOutcomes builds the table implied by shift. Inputs are not
// modified.
func PotentialOutcomes(x, y []float64, shift Shift) (*Table, error) {
	n := len(x) + len(y)
	t := &Table{
		Treatment: make([]float64, n),
		Control:   make([]float64, n),
		NX:        len(x),
	}
	xt, yt := t.Treatment[:t.NX], t.Treatment[t.NX:]
	xc, yc := t.Control[:t.NX], t.Control[t.NX:]

	switch shift.kind {
	case ShiftNone:
		copy(xt, x)
		copy(yt, y)
		copy(xc, x)
		copy(yc, y)

	case ShiftConstant:
		if !finite(shift.delta) {
			return nil, core.NewInputError(core.ErrInvalidShift, "constant %g is not finite", shift.delta)
		}
		copy(xt, x)
		copy(yt, y)
		floats.AddConst(shift.delta, yt)
		copy(xc, x)
		floats.AddConst(-shift.delta, xc)
		copy(yc, y)

	case ShiftFunc:
		if shift.f == nil {
			return nil, core.NewInputError(core.ErrInvalidShift, "nil shift function")
		}
		return nil, core.NewInputError(core.ErrMissingInverse, "use a function pair")

	case ShiftFuncPair:
		if shift.f == nil || shift.inverse == nil {
			return nil, core.NewInputError(core.ErrInvalidShift, "nil function in shift pair")
		}
		copy(xt, x)
		for i, v := range y {
			yt[i] = shift.f(v)
		}
		for i, v := range x {
			xc[i] = shift.inverse(v)
		}
		copy(yc, y)

	default:
		return nil, core.NewInputError(core.ErrInvalidShift, "unrecognized kind %s", shift.kind)
	}

	return t, nil
}

// Len is the number of units
func (t *Table) Len() int { return len(t.Treatment) }

// NY is the number of y-units
func (t *Table) NY() int { return len(t.Treatment) - t.NX }

// Observed re-derives the observed samples: treatment outcomes for x-units,
// control outcomes for y-units.
func (t *Table) Observed() (x, y []float64) {
	x = make([]float64, t.NX)
	y = make([]float64, t.NY())
	copy(x, t.Treatment[:t.NX])
	copy(y, t.Control[t.NX:])
	return x, y
}

// Split reads the arrangement perm: the units at perm[:NX] are assigned to
// treatment and the rest to control. xbuf and ybuf must have lengths NX and NY.
func (t *Table) Split(perm []int, xbuf, ybuf []float64) {
	for i := range xbuf {
		xbuf[i] = t.Treatment[perm[i]]
	}
	for i := range ybuf {
		ybuf[i] = t.Control[perm[t.NX+i]]
	}
}
