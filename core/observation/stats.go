package observation

import (
	"math"
	"sort"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// summary holds descriptive statistics of a sample. Over an empty sample the
// count and sum are zero and the other fields are NA.
type summary struct {
	count  float64
	sum    float64
	mean   float64
	stddev float64
	min    float64
	max    float64
}

func summarize(xs []float64) summary {
	if len(xs) == 0 {
		na := tensor.NA()
		return summary{mean: na, stddev: na, min: na, max: na}
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return summary{
		count:  float64(len(xs)),
		sum:    floats.Sum(xs),
		mean:   mean,
		stddev: std,
		min:    floats.Min(xs),
		max:    floats.Max(xs),
	}
}

// put writes count, sum, mean, stddev, min and max into dst.
func (s summary) put(dst []float64) {
	dst[0], dst[1], dst[2], dst[3], dst[4], dst[5] = s.count, s.sum, s.mean, s.stddev, s.min, s.max
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return tensor.NA(), tensor.NA()
	}
	return floats.Min(xs), floats.Max(xs)
}

// popStd is the population standard deviation, NA over an empty sample.
func popStd(xs []float64) float64 {
	if len(xs) == 0 {
		return tensor.NA()
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	return std
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return tensor.NA()
	}
	return stat.Mean(xs, nil)
}

// quantile is the empirical p-quantile of xs, which is sorted in place.
func quantile(p float64, xs []float64) float64 {
	if len(xs) == 0 {
		return tensor.NA()
	}
	sort.Float64s(xs)
	return stat.Quantile(p, stat.Empirical, xs, nil)
}

// safeDiv returns num/den, or NA when den is zero or either operand is NA.
func safeDiv(num, den float64) float64 {
	if den == 0 || tensor.IsNA(num) || tensor.IsNA(den) {
		return tensor.NA()
	}
	return num / den
}

func norm(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(vek.Dot(xs, xs))
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func objectiveVector(vars []solver.Variable) []float64 {
	c := make([]float64, len(vars))
	for i, v := range vars {
		c[i] = v.Objective
	}
	return c
}

// sparseRow holds the coefficients of a row gathered from its entries, with
// the matching objective coefficients, so dot products run on dense slices.
type sparseRow struct {
	coefs []float64
	obj   []float64
}

func gatherRow(entries []solver.Entry, c []float64) sparseRow {
	r := sparseRow{coefs: make([]float64, len(entries)), obj: make([]float64, len(entries))}
	for k, e := range entries {
		r.coefs[k] = e.Coef
		r.obj[k] = c[e.Var]
	}
	return r
}

func (r sparseRow) norm() float64 {
	return norm(r.coefs)
}

func (r sparseRow) dotObjective() float64 {
	if len(r.coefs) == 0 {
		return 0
	}
	return vek.Dot(r.coefs, r.obj)
}

func typeFlags(t solver.VarType) (binary, integer, implicit, continuous float64) {
	return boolFeature(t == solver.Binary),
		boolFeature(t == solver.Integer),
		boolFeature(t == solver.ImplicitInteger),
		boolFeature(t == solver.Continuous)
}
