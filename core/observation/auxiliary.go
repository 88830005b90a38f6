package observation

import (
	"errors"
	"math"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// FocusNode describes the current node of the search tree.
type FocusNode struct{}

// NewFocusNode returns a FocusNode extractor.
func NewFocusNode() *FocusNode {
	return &FocusNode{}
}

// Reset does nothing.
func (*FocusNode) Reset(solver.Model) error {
	return nil
}

// Extract implements Function. It fails with an invalid solver state error
// when there is no focus node. The LP candidate count is zero when no LP has
// been solved.
func (*FocusNode) Extract(m solver.Model, _ bool) (FocusNodeObs, error) {
	const op = "focus node"

	node, err := m.FocusNode()
	if err != nil {
		return FocusNodeObs{}, stateError(op, err)
	}
	lpCands, err := m.Candidates(solver.LPCandidates)
	if err != nil && !errors.Is(err, solver.ErrNoLP) {
		return FocusNodeObs{}, stateError(op, err)
	}
	pseudoCands, err := m.Candidates(solver.PseudoCandidates)
	if err != nil {
		return FocusNodeObs{}, stateError(op, err)
	}
	return newFocusNodeObs(node, len(lpCands), len(pseudoCands)), nil
}

// knapsack is the first knapsack constraint containing each variable.
type knapsack struct {
	capacity float64
	weight   float64
}

// isKnapsack reports whether c is a knapsack constraint: tagged as such, or a
// "Σ w·x <= b" row over binary variables with positive integral weights.
func isKnapsack(c solver.Constraint, vars []solver.Variable) bool {
	if solver.IsInfinite(c.Rhs) {
		return false
	}
	if c.Kind == solver.Knapsack {
		return true
	}
	if !solver.IsInfinite(c.Lhs) && c.Lhs > 0 {
		return false
	}
	if len(c.Entries) == 0 {
		return false
	}
	for _, e := range c.Entries {
		if vars[e.Var].Type != solver.Binary || e.Coef <= 0 || e.Coef != math.Trunc(e.Coef) {
			return false
		}
	}
	return true
}

func knapsacks(m solver.Model, op string) ([]*knapsack, error) {
	vars, err := m.Variables()
	if err != nil {
		return nil, stateError(op, err)
	}
	cons, err := m.Constraints()
	if err != nil {
		return nil, stateError(op, err)
	}
	if err := checkConstraints(cons, len(vars)); err != nil {
		return nil, stateError(op, err)
	}
	out := make([]*knapsack, len(vars))
	for _, c := range cons {
		if !isKnapsack(c, vars) {
			continue
		}
		for _, e := range c.Entries {
			if out[e.Var] == nil {
				out[e.Var] = &knapsack{capacity: c.Rhs, weight: e.Coef}
			}
		}
	}
	return out, nil
}

// Capacity reports, for every variable, the capacity of the first knapsack
// constraint containing it, or NA.
type Capacity struct{}

// NewCapacity returns a Capacity extractor.
func NewCapacity() *Capacity {
	return &Capacity{}
}

// Reset does nothing.
func (*Capacity) Reset(solver.Model) error {
	return nil
}

// Extract implements Function.
func (*Capacity) Extract(m solver.Model, _ bool) (tensor.Vector, error) {
	ks, err := knapsacks(m, "capacity")
	if err != nil {
		return nil, err
	}
	out := tensor.NewVectorFilled(len(ks), tensor.NA())
	for j, k := range ks {
		if k != nil {
			out[j] = k.capacity
		}
	}
	return out, nil
}

// Weight reports, for every variable, its weight in the first knapsack
// constraint containing it, or NA.
type Weight struct{}

// NewWeight returns a Weight extractor.
func NewWeight() *Weight {
	return &Weight{}
}

// Reset does nothing.
func (*Weight) Reset(solver.Model) error {
	return nil
}

// Extract implements Function.
func (*Weight) Extract(m solver.Model, _ bool) (tensor.Vector, error) {
	ks, err := knapsacks(m, "weight")
	if err != nil {
		return nil, err
	}
	out := tensor.NewVectorFilled(len(ks), tensor.NA())
	for j, k := range ks {
		if k != nil {
			out[j] = k.weight
		}
	}
	return out, nil
}
