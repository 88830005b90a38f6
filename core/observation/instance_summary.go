package observation

import (
	"errors"
	"math"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// InstanceSummary extracts global instance features in the style of Hutter et
// al. (2011): problem size, constraint graph degrees, coefficient statistics
// and a few LP features. LP features are NA when no LP has been solved.
type InstanceSummary struct{}

// NewInstanceSummary returns an InstanceSummary extractor.
func NewInstanceSummary() *InstanceSummary {
	return &InstanceSummary{}
}

// Reset does nothing.
func (*InstanceSummary) Reset(solver.Model) error {
	return nil
}

// Extract implements Function.
func (*InstanceSummary) Extract(m solver.Model, _ bool) (InstanceSummaryObs, error) {
	const op = "instance summary"

	vars, err := m.Variables()
	if err != nil {
		return InstanceSummaryObs{}, stateError(op, err)
	}
	cons, err := m.Constraints()
	if err != nil {
		return InstanceSummaryObs{}, stateError(op, err)
	}
	if err := checkConstraints(cons, len(vars)); err != nil {
		return InstanceSummaryObs{}, stateError(op, err)
	}
	lp, err := m.LP()
	switch {
	case errors.Is(err, solver.ErrNoLP):
		lp = nil
	case err != nil:
		return InstanceSummaryObs{}, stateError(op, err)
	}

	f := tensor.NewVectorFilled(InstanceSummarySchema.Len(), tensor.NA())
	nVars, nCons := len(vars), len(cons)

	varDeg := make([]float64, nVars)
	consDeg := make([]float64, nCons)
	colCoefs := make([][]float64, nVars)
	var normalized []float64
	nnz := 0
	for i, c := range cons {
		consDeg[i] = float64(len(c.Entries))
		nnz += len(c.Entries)
		b, sign, ok := c.Oriented()
		for _, e := range c.Entries {
			varDeg[e.Var]++
			colCoefs[e.Var] = append(colCoefs[e.Var], math.Abs(e.Coef))
			if ok && b != 0 {
				normalized = append(normalized, sign*e.Coef/b)
			}
		}
	}

	f[InstNbVariables] = float64(nVars)
	f[InstNbConstraints] = float64(nCons)
	f[InstNbNonzeroCoefs] = float64(nnz)

	vd := summarize(varDeg)
	f[InstVariableNodeDegreeMean], f[InstVariableNodeDegreeMax] = vd.mean, vd.max
	f[InstVariableNodeDegreeMin], f[InstVariableNodeDegreeStd] = vd.min, vd.stddev
	cd := summarize(consDeg)
	f[InstConstraintNodeDegreeMean], f[InstConstraintNodeDegreeMax] = cd.mean, cd.max
	f[InstConstraintNodeDegreeMin], f[InstConstraintNodeDegreeStd] = cd.min, cd.stddev

	allDeg := append(append(make([]float64, 0, nVars+nCons), varDeg...), consDeg...)
	nd := summarize(allDeg)
	f[InstNodeDegreeMean], f[InstNodeDegreeMax] = nd.mean, nd.max
	f[InstNodeDegreeMin], f[InstNodeDegreeStd] = nd.min, nd.stddev
	f[InstNodeDegree25Q] = quantile(0.25, allDeg)
	f[InstNodeDegree75Q] = quantile(0.75, allDeg)
	f[InstEdgeDensity] = safeDiv(float64(nnz), float64(nVars*nCons))

	if lp != nil {
		var slack []float64
		for j, v := range vars {
			if v.Type.IsIntegral() && j < len(lp.Columns) {
				x := lp.Columns[j].Solution
				slack = append(slack, math.Abs(x-math.Round(x)))
			}
		}
		f[InstLPSlackMean] = mean(slack)
		_, f[InstLPSlackMax] = minMax(slack)
		f[InstLPSlackL2] = norm(slack)
		f[InstLPObjectiveValue] = lp.Objective
	}

	var byM, byN, bySqrtN []float64
	for j, v := range vars {
		if nCons > 0 {
			byM = append(byM, v.Objective/float64(nCons))
		}
		if varDeg[j] > 0 {
			byN = append(byN, v.Objective/varDeg[j])
			bySqrtN = append(bySqrtN, v.Objective/math.Sqrt(varDeg[j]))
		}
	}
	f[InstObjectiveCoefMStd] = popStd(byM)
	f[InstObjectiveCoefNStd] = popStd(byN)
	f[InstObjectiveCoefSqrtNStd] = popStd(bySqrtN)

	f[InstConstraintCoefMean] = mean(normalized)
	f[InstConstraintCoefStd] = popStd(normalized)

	var variation []float64
	for _, coefs := range colCoefs {
		if len(coefs) == 0 {
			continue
		}
		s := summarize(coefs)
		if v := safeDiv(s.stddev, s.mean); !tensor.IsNA(v) {
			variation = append(variation, v)
		}
	}
	f[InstConstraintVarCoefMean] = mean(variation)
	f[InstConstraintVarCoefStd] = popStd(variation)

	var support []float64
	nDiscrete, nUnbounded, nContinuous := 0, 0, 0
	for _, v := range vars {
		if !v.Type.IsIntegral() {
			nContinuous++
			continue
		}
		nDiscrete++
		if solver.IsInfinite(v.Lower) || solver.IsInfinite(v.Upper) {
			nUnbounded++
			continue
		}
		support = append(support, math.Floor(v.Upper)-math.Ceil(v.Lower)+1)
	}
	f[InstDiscreteVarsSupportSizeMean] = mean(support)
	f[InstDiscreteVarsSupportSizeStd] = popStd(support)
	f[InstRatioUnboundedDiscreteVars] = safeDiv(float64(nUnbounded), float64(nDiscrete))
	f[InstRatioContinuousVars] = safeDiv(float64(nContinuous), float64(nVars))

	return InstanceSummaryObs{Features: f}, nil
}
