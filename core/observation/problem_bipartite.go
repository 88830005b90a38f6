package observation

import (
	"math"

	"github.com/viterin/vek"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// ProblemBipartite extracts the bipartite graph of the presolved problem,
// independent of any LP. Constraints are oriented as a·x <= b like the rows of
// NodeBipartite.
//
// With normalization the objective is divided by its Euclidean norm, every
// constraint (edges and bias) by the norm of its coefficients, and finite
// bounds by the largest finite bound magnitude of the problem.
type ProblemBipartite struct {
	normalize bool
}

// NewProblemBipartite returns a ProblemBipartite extractor.
func NewProblemBipartite(normalize bool) *ProblemBipartite {
	return &ProblemBipartite{normalize: normalize}
}

// Reset does nothing.
func (e *ProblemBipartite) Reset(solver.Model) error {
	return nil
}

// Extract implements Function.
func (e *ProblemBipartite) Extract(m solver.Model, _ bool) (ProblemBipartiteObs, error) {
	const op = "problem bipartite"

	vars, err := m.Variables()
	if err != nil {
		return ProblemBipartiteObs{}, stateError(op, err)
	}
	cons, err := m.Constraints()
	if err != nil {
		return ProblemBipartiteObs{}, stateError(op, err)
	}
	if err := checkConstraints(cons, len(vars)); err != nil {
		return ProblemBipartiteObs{}, stateError(op, err)
	}

	return ProblemBipartiteObs{
		VariableFeatures:   e.variableFeatures(vars),
		ConstraintFeatures: e.constraintFeatures(cons),
		EdgeFeatures:       e.edges(cons, len(vars)),
	}, nil
}

func (e *ProblemBipartite) variableFeatures(vars []solver.Variable) *tensor.Matrix {
	out := tensor.NewMatrix(len(vars), ProblemVariableSchema.Len())

	objective := objectiveVector(vars)
	boundScale := 1.0
	if e.normalize {
		if n := norm(objective); n > 0 {
			vek.MulNumber_Inplace(objective, 1/n)
		}
		if mb := maxFiniteBound(vars); mb > 0 {
			boundScale = mb
		}
	}

	for i, v := range vars {
		f := out.Row(i)
		f[ProblemVarObjective] = objective[i]
		f[ProblemVarIsTypeBinary], f[ProblemVarIsTypeInteger], f[ProblemVarIsTypeImplicitInteger], f[ProblemVarIsTypeContinuous] = typeFlags(v.Type)
		f[ProblemVarHasLowerBound] = boolFeature(!solver.IsInfinite(v.Lower))
		f[ProblemVarHasUpperBound] = boolFeature(!solver.IsInfinite(v.Upper))
		f[ProblemVarLowerBound] = boundFeature(v.Lower, boundScale)
		f[ProblemVarUpperBound] = boundFeature(v.Upper, boundScale)
	}
	return out
}

func maxFiniteBound(vars []solver.Variable) float64 {
	largest := 0.0
	for _, v := range vars {
		for _, b := range [2]float64{v.Lower, v.Upper} {
			if !solver.IsInfinite(b) {
				largest = math.Max(largest, math.Abs(b))
			}
		}
	}
	return largest
}

func boundFeature(b, scale float64) float64 {
	if solver.IsInfinite(b) {
		return tensor.NA()
	}
	return b / scale
}

func (e *ProblemBipartite) constraintFeatures(cons []solver.Constraint) *tensor.Matrix {
	out := tensor.NewMatrix(len(cons), ProblemConstraintSchema.Len())
	for i, c := range cons {
		b, _, ok := c.Oriented()
		bias := tensor.NA()
		if ok {
			bias = b / e.rowScale(c)
		}
		out.Set(i, int(ProblemConsBias), bias)
	}
	return out
}

func (e *ProblemBipartite) edges(cons []solver.Constraint, nVars int) tensor.COO {
	nnz := 0
	for _, c := range cons {
		nnz += len(c.Entries)
	}
	edges := tensor.NewCOO(len(cons), nVars, nnz)
	for i, c := range cons {
		_, sign, _ := c.Oriented()
		scale := e.rowScale(c)
		for _, en := range c.Entries {
			edges.Append(i, en.Var, sign*en.Coef/scale)
		}
	}
	return edges
}

// rowScale is the normalization divisor of a constraint, 1 when disabled or
// when the constraint has no coefficients.
func (e *ProblemBipartite) rowScale(c solver.Constraint) float64 {
	if !e.normalize {
		return 1
	}
	coefs := make([]float64, len(c.Entries))
	for k, en := range c.Entries {
		coefs[k] = en.Coef
	}
	if n := norm(coefs); n > 0 {
		return n
	}
	return 1
}
