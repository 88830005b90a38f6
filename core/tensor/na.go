package tensor

import "math"

// NA returns the "not applicable" sentinel stored in cells whose feature is
// undefined for an entity.
func NA() float64 {
	return math.NaN()
}

// IsNA reports whether v is the not-applicable sentinel.
func IsNA(v float64) bool {
	return math.IsNaN(v)
}

// Fill sets every element of xs to v.
func Fill(xs []float64, v float64) {
	for i := range xs {
		xs[i] = v
	}
}

func sameBits(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b) || (math.IsNaN(a) && math.IsNaN(b))
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameBits(a[i], b[i]) {
			return false
		}
	}
	return true
}
