package observation

import (
	"errors"
	"fmt"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// NodeBipartite extracts the bipartite graph of the LP solved at the focus
// node. Rows are oriented as a·x <= b, using the right-hand side when it is
// finite and the negated left-hand side otherwise.
//
// With caching enabled the static columns (objective, types, bound presence,
// bias, cosine similarity) and the edges are computed on the first Extract of
// an episode and reused. The LP row set must then stay the same for the whole
// episode; a change in dimensions is reported as a cache precondition error,
// or repaired when WithStructureCheck is set.
type NodeBipartite struct {
	cache  bool
	opts   options
	static StaticCache[nodeStatic]
}

type nodeStatic struct {
	vars  *tensor.Matrix
	rows  *tensor.Matrix
	edges tensor.COO

	// Norms used to scale the dynamic columns.
	objNorm  float64
	rowNorms []float64
}

// NewNodeBipartite returns a NodeBipartite extractor.
func NewNodeBipartite(cache bool, opts ...Option) *NodeBipartite {
	return &NodeBipartite{cache: cache, opts: newOptions(opts)}
}

// Reset drops the static cache.
func (e *NodeBipartite) Reset(solver.Model) error {
	e.static.Invalidate()
	return nil
}

// Extract implements Function. When no LP has been solved the structure is
// still extracted from the problem constraints, and every LP-dependent column
// is NA.
func (e *NodeBipartite) Extract(m solver.Model, _ bool) (NodeBipartiteObs, error) {
	const op = "node bipartite"

	vars, err := m.Variables()
	if err != nil {
		return NodeBipartiteObs{}, stateError(op, err)
	}
	lp, err := m.LP()
	switch {
	case errors.Is(err, solver.ErrNoLP):
		lp = nil
	case err != nil:
		return NodeBipartiteObs{}, stateError(op, err)
	case len(lp.Columns) != len(vars):
		return NodeBipartiteObs{}, stateError(op,
			fmt.Errorf("LP has %d columns for %d variables", len(lp.Columns), len(vars)))
	}
	rows, err := nodeRows(m, lp)
	if err != nil {
		return NodeBipartiteObs{}, stateError(op, err)
	}
	if err := checkRows(rows, len(vars)); err != nil {
		return NodeBipartiteObs{}, stateError(op, err)
	}
	inc, err := m.Incumbents()
	if err != nil {
		return NodeBipartiteObs{}, stateError(op, err)
	}

	st, err := e.staticFeatures(op, vars, rows, lp != nil)
	if err != nil {
		return NodeBipartiteObs{}, err
	}

	obs := NodeBipartiteObs{
		VariableFeatures: st.vars.Clone(),
		RowFeatures:      st.rows.Clone(),
		EdgeFeatures:     st.edges.Clone(),
	}
	fillNodeVariables(obs.VariableFeatures, vars, lp, inc, st.objNorm)
	fillNodeRows(obs.RowFeatures, rows, lp, st)
	return obs, nil
}

// staticFeatures computes or loads the static block. Rows taken from the
// problem constraints when no LP is solved are never cached, since the LP
// rows of a later step may differ from them.
func (e *NodeBipartite) staticFeatures(op string, vars []solver.Variable, rows []solver.Row, hasLP bool) (nodeStatic, error) {
	if !e.cache || !hasLP {
		return computeNodeStatic(vars, rows), nil
	}
	fp := e.opts.fingerprint(vars, rows)
	st, ok, err := loadCached(&e.static, e.opts, op, fp)
	if err != nil || ok {
		return st, err
	}
	st = computeNodeStatic(vars, rows)
	e.static.Store(st, fp)
	e.opts.logger.Debug("cached static features",
		"extractor", op,
		"variables", len(vars),
		"rows", len(rows))
	return st, nil
}

// nodeRows returns the LP rows, or the problem constraints when no LP exists.
func nodeRows(m solver.Model, lp *solver.LP) ([]solver.Row, error) {
	if lp != nil {
		return lp.Rows, nil
	}
	cons, err := m.Constraints()
	if err != nil {
		return nil, err
	}
	rows := make([]solver.Row, len(cons))
	for i, c := range cons {
		rows[i] = solver.Row{Constraint: c}
	}
	return rows, nil
}

func computeNodeStatic(vars []solver.Variable, rows []solver.Row) nodeStatic {
	c := objectiveVector(vars)
	st := nodeStatic{
		vars:     tensor.NewMatrix(len(vars), NodeVariableSchema.Len()),
		rows:     tensor.NewMatrix(len(rows), NodeRowSchema.Len()),
		objNorm:  norm(c),
		rowNorms: make([]float64, len(rows)),
	}
	objScale := st.objNorm
	if objScale == 0 {
		objScale = 1
	}

	for i, v := range vars {
		f := st.vars.Row(i)
		f[NodeVarObjective] = v.Objective / objScale
		f[NodeVarIsTypeBinary], f[NodeVarIsTypeInteger], f[NodeVarIsTypeImplicitInteger], f[NodeVarIsTypeContinuous] = typeFlags(v.Type)
		f[NodeVarHasLowerBound] = boolFeature(!solver.IsInfinite(v.Lower))
		f[NodeVarHasUpperBound] = boolFeature(!solver.IsInfinite(v.Upper))
	}

	nnz := 0
	for _, r := range rows {
		nnz += len(r.Entries)
	}
	st.edges = tensor.NewCOO(len(rows), len(vars), nnz)

	for i, r := range rows {
		b, sign, ok := r.Oriented()
		sr := gatherRow(r.Entries, c)
		rowNorm := sr.norm()
		st.rowNorms[i] = rowNorm

		f := st.rows.Row(i)
		f[NodeRowBias] = tensor.NA()
		if ok && rowNorm > 0 {
			f[NodeRowBias] = (b - sign*r.Constant) / rowNorm
		}
		f[NodeRowObjectiveCosineSimilarity] = tensor.NA()
		if rowNorm > 0 && st.objNorm > 0 {
			f[NodeRowObjectiveCosineSimilarity] = sign * sr.dotObjective() / (rowNorm * st.objNorm)
		}
		for _, en := range r.Entries {
			st.edges.Append(i, en.Var, sign*en.Coef)
		}
	}
	return st
}

var nodeLPColumns = []NodeVariableFeature{
	NodeVarNormedReducedCost,
	NodeVarSolutionValue,
	NodeVarSolutionFrac,
	NodeVarIsSolutionAtLowerBound,
	NodeVarIsSolutionAtUpperBound,
	NodeVarScaledAge,
	NodeVarIsBasisLower,
	NodeVarIsBasisBasic,
	NodeVarIsBasisUpper,
	NodeVarIsBasisZero,
}

func fillNodeVariables(dst *tensor.Matrix, vars []solver.Variable, lp *solver.LP, inc solver.Incumbents, objNorm float64) {
	objScale := objNorm
	if objScale == 0 {
		objScale = 1
	}
	for i, v := range vars {
		f := dst.Row(i)
		f[NodeVarIncumbentValue] = valueAt(inc.Best, i)
		f[NodeVarAverageIncumbentValue] = valueAt(inc.Average, i)

		if lp == nil {
			for _, col := range nodeLPColumns {
				f[col] = tensor.NA()
			}
			continue
		}

		col := lp.Columns[i]
		x := col.Solution
		f[NodeVarNormedReducedCost] = col.ReducedCost / objScale
		f[NodeVarSolutionValue] = x
		f[NodeVarSolutionFrac] = 0
		if v.Type.IsIntegral() {
			f[NodeVarSolutionFrac] = solver.FeasFrac(x)
		}
		f[NodeVarIsSolutionAtLowerBound] = boolFeature(!solver.IsInfinite(v.Lower) && solver.IsEQ(x, v.Lower))
		f[NodeVarIsSolutionAtUpperBound] = boolFeature(!solver.IsInfinite(v.Upper) && solver.IsEQ(x, v.Upper))
		f[NodeVarScaledAge] = scaledAge(col.Age, lp.NumLPs)
		f[NodeVarIsBasisLower] = boolFeature(col.Basis == solver.BasisLower)
		f[NodeVarIsBasisBasic] = boolFeature(col.Basis == solver.BasisBasic)
		f[NodeVarIsBasisUpper] = boolFeature(col.Basis == solver.BasisUpper)
		f[NodeVarIsBasisZero] = boolFeature(col.Basis == solver.BasisZero)
	}
}

func fillNodeRows(dst *tensor.Matrix, rows []solver.Row, lp *solver.LP, st nodeStatic) {
	for i, r := range rows {
		f := dst.Row(i)
		if lp == nil {
			f[NodeRowIsTight] = tensor.NA()
			f[NodeRowDualSolutionValue] = tensor.NA()
			f[NodeRowScaledAge] = tensor.NA()
			continue
		}

		_, sign, _ := r.Constraint.Oriented()
		f[NodeRowIsTight] = boolFeature(isTight(r))
		f[NodeRowDualSolutionValue] = tensor.NA()
		if rn := st.rowNorms[i]; rn > 0 && st.objNorm > 0 {
			f[NodeRowDualSolutionValue] = sign * r.Dual / (rn * st.objNorm)
		}
		f[NodeRowScaledAge] = scaledAge(r.Age, lp.NumLPs)
	}
}

// isTight reports whether the row activity sits on one of its finite sides.
func isTight(r solver.Row) bool {
	return (!solver.IsInfinite(r.Rhs) && solver.IsEQ(r.Activity, r.Rhs)) ||
		(!solver.IsInfinite(r.Lhs) && solver.IsEQ(r.Activity, r.Lhs))
}

func scaledAge(age, numLPs int) float64 {
	return float64(age) / float64(numLPs+5)
}

func valueAt(xs []float64, i int) float64 {
	if i >= len(xs) {
		return tensor.NA()
	}
	return xs[i]
}
