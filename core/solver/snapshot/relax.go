package snapshot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/adalundhe/branchobs/core/solver"
)

// strongBranch solves both child relaxations of branching on variable v at its
// LP value x: x[v] <= ceil(x-1) and x[v] >= floor(x+1). For a fractional x
// these are the floor and ceiling; an integral x excludes the value itself.
func strongBranch(vars []solver.Variable, relax *solver.LP, v int) (solver.StrongBranchResult, error) {
	x := relax.Columns[v].Solution
	lower := make([]float64, len(vars))
	upper := make([]float64, len(vars))
	for i, vr := range vars {
		lower[i], upper[i] = vr.Lower, vr.Upper
	}

	res := solver.StrongBranchResult{DownValid: true, UpValid: true}

	upper[v] = math.Min(upper[v], solver.FeasCeil(x-1))
	down, infeasible, err := solveRelaxation(vars, lower, upper, relax.Rows)
	if err != nil {
		return solver.StrongBranchResult{}, fmt.Errorf("strong branching down on %d: %w", v, err)
	}
	res.Down, res.DownInfeasible = down, infeasible
	upper[v] = vars[v].Upper

	lower[v] = math.Max(lower[v], solver.FeasFloor(x+1))
	up, infeasible, err := solveRelaxation(vars, lower, upper, relax.Rows)
	if err != nil {
		return solver.StrongBranchResult{}, fmt.Errorf("strong branching up on %d: %w", v, err)
	}
	res.Up, res.UpInfeasible = up, infeasible
	return res, nil
}

// solveRelaxation minimizes the objective over the rows and bounds. An
// infeasible relaxation reports +Infinity; an unbounded one -Inf.
func solveRelaxation(vars []solver.Variable, lower, upper []float64, rows []solver.Row) (float64, bool, error) {
	for i := range vars {
		if !solver.IsInfinite(lower[i]) && !solver.IsInfinite(upper[i]) && lower[i] > upper[i]+solver.Epsilon {
			return solver.Infinity, true, nil
		}
	}

	// Inequalities g·x <= h over the original (free) variables.
	var (
		g [][]float64
		h []float64
	)
	dense := func(es []solver.Entry, sign float64) []float64 {
		out := make([]float64, len(vars))
		for _, e := range es {
			out[e.Var] += sign * e.Coef
		}
		return out
	}
	for _, r := range rows {
		if len(r.Entries) == 0 {
			continue
		}
		if !solver.IsInfinite(r.Rhs) {
			g = append(g, dense(r.Entries, 1))
			h = append(h, r.Rhs-r.Constant)
		}
		if !solver.IsInfinite(r.Lhs) {
			g = append(g, dense(r.Entries, -1))
			h = append(h, r.Constant-r.Lhs)
		}
	}
	for i := range vars {
		if !solver.IsInfinite(upper[i]) {
			row := make([]float64, len(vars))
			row[i] = 1
			g, h = append(g, row), append(h, upper[i])
		}
		if !solver.IsInfinite(lower[i]) {
			row := make([]float64, len(vars))
			row[i] = -1
			g, h = append(g, row), append(h, -lower[i])
		}
	}

	// Variables in no inequality are free: they either leave the objective
	// unbounded or can be dropped.
	used := make([]int, 0, len(vars))
	for j, v := range vars {
		inRow := false
		for _, row := range g {
			if row[j] != 0 {
				inRow = true
				break
			}
		}
		switch {
		case inRow:
			used = append(used, j)
		case v.Objective != 0:
			return math.Inf(-1), false, nil
		}
	}
	if len(g) == 0 || len(used) == 0 {
		return 0, false, nil
	}

	c := make([]float64, len(used))
	gm := mat.NewDense(len(g), len(used), nil)
	for k, j := range used {
		c[k] = vars[j].Objective
		for i, row := range g {
			gm.Set(i, k, row[j])
		}
	}

	cNew, aNew, bNew := lp.Convert(c, gm, h, nil, nil)
	opt, _, err := lp.Simplex(cNew, aNew, bNew, 0, nil)
	switch {
	case err == nil:
		return opt, false, nil
	case errors.Is(err, lp.ErrInfeasible):
		return solver.Infinity, true, nil
	case errors.Is(err, lp.ErrUnbounded):
		return math.Inf(-1), false, nil
	default:
		return 0, false, err
	}
}
