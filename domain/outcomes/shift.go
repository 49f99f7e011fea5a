// Package outcomes encodes a null hypothesis linking two samples as a
// potential-outcomes table: for every unit, the value it would show under
// treatment and under control if the null were true.
package outcomes

import (
	"fmt"
	"math"
)

// ShiftKind tags the four null-hypothesis shift models.
type ShiftKind int

const (
	ShiftNone ShiftKind = iota
	ShiftConstant
	ShiftFunc
	ShiftFuncPair
)

func (k ShiftKind) String() string {
	switch k {
	case ShiftNone:
		return "none"
	case ShiftConstant:
		return "constant"
	case ShiftFunc:
		return "function"
	case ShiftFuncPair:
		return "function_pair"
	}
	return fmt.Sprintf("ShiftKind(%d)", int(k))
}

// Shift is the relationship between x and y under the null. The zero value
// is no shift.
type Shift struct {
	kind    ShiftKind
	delta   float64
	f       func(float64) float64
	inverse func(float64) float64
}

// NoShift asserts x and y are a random partition of the pooled data.
func NoShift() Shift { return Shift{kind: ShiftNone} }

// Constant asserts x is distributed as y + d.
func Constant(d float64) Shift { return Shift{kind: ShiftConstant, delta: d} }

// Func asserts x_i = f(y_i). The table cannot be built without an inverse;
// use FuncPair.
func Func(f func(float64) float64) Shift { return Shift{kind: ShiftFunc, f: f} }

// FuncPair asserts x_i = f(y_i) and y_i = inverse(x_i). The composition is
// assumed to be the identity and is not checked.
func FuncPair(f, inverse func(float64) float64) Shift {
	return Shift{kind: ShiftFuncPair, f: f, inverse: inverse}
}

// Kind returns the shift model tag
func (s Shift) Kind() ShiftKind { return s.kind }

// Delta returns the constant of a Constant shift and false otherwise.
func (s Shift) Delta() (float64, bool) {
	return s.delta, s.kind == ShiftConstant
}

func (s Shift) String() string {
	if s.kind == ShiftConstant {
		return fmt.Sprintf("constant(%g)", s.delta)
	}
	return s.kind.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
