package solver

import "math"

// Numerical tolerances matching the defaults of common MILP solvers.
const (
	// Infinity is the magnitude from which a value is treated as infinite.
	Infinity = 1e20

	// Epsilon is the absolute tolerance for equality comparisons.
	Epsilon = 1e-9

	// FeasTol is the feasibility tolerance used when rounding LP values.
	FeasTol = 1e-6
)

// IsInfinite reports whether v is at or beyond the infinity threshold.
func IsInfinite(v float64) bool {
	return math.IsInf(v, 0) || math.Abs(v) >= Infinity
}

// IsEQ reports whether a and b are equal within Epsilon. Infinite values of
// the same sign compare equal.
func IsEQ(a, b float64) bool {
	if IsInfinite(a) || IsInfinite(b) {
		return IsInfinite(a) && IsInfinite(b) && (a > 0) == (b > 0)
	}
	return math.Abs(a-b) <= Epsilon
}

// FeasFloor rounds v down, treating values within FeasTol of the next integer as integral.
func FeasFloor(v float64) float64 {
	return math.Floor(v + FeasTol)
}

// FeasCeil rounds v up, treating values within FeasTol of the previous integer as integral.
func FeasCeil(v float64) float64 {
	return math.Ceil(v - FeasTol)
}

// FeasFrac returns the fractional part of v relative to FeasFloor.
func FeasFrac(v float64) float64 {
	return v - FeasFloor(v)
}

// IsFixed reports whether lower and upper bounds coincide.
func IsFixed(lower, upper float64) bool {
	return IsEQ(lower, upper)
}

// Oriented returns the constraint in "a·x <= b" form: the right-hand side when
// it is finite, otherwise the negated left-hand side. sign is the factor to
// apply to coefficients and duals; ok is false for a free row.
func (c Constraint) Oriented() (b float64, sign float64, ok bool) {
	switch {
	case !IsInfinite(c.Rhs):
		return c.Rhs, 1, true
	case !IsInfinite(c.Lhs):
		return -c.Lhs, -1, true
	default:
		return 0, 1, false
	}
}

// IsFractional reports whether v is not integral within FeasTol.
func IsFractional(v float64) bool {
	return FeasFrac(v) > FeasTol
}
