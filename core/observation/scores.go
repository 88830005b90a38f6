package observation

import (
	"fmt"
	"math"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

const (
	// scoreEpsilon is the smallest gain used in the product score.
	scoreEpsilon = 1e-6

	// infeasibleGain replaces the infinite gain of an infeasible child.
	infeasibleGain = solver.Infinity
)

// productScore combines the down and up gains of a branching candidate.
func productScore(down, up float64) float64 {
	return math.Max(down, scoreEpsilon) * math.Max(up, scoreEpsilon)
}

// StrongBranchingScores scores every branching candidate by strong branching.
// The result has one entry per variable; non-candidates are NA.
type StrongBranchingScores struct {
	pseudoCandidates bool
}

// NewStrongBranchingScores returns a StrongBranchingScores extractor over LP
// candidates, or over pseudo candidates when pseudoCandidates is set.
func NewStrongBranchingScores(pseudoCandidates bool) *StrongBranchingScores {
	return &StrongBranchingScores{pseudoCandidates: pseudoCandidates}
}

// Reset does nothing.
func (*StrongBranchingScores) Reset(solver.Model) error {
	return nil
}

// Extract implements Function. It fails with an invalid solver state error
// when no LP has been solved.
func (e *StrongBranchingScores) Extract(m solver.Model, _ bool) (tensor.Vector, error) {
	const op = "strong branching scores"

	vars, err := m.Variables()
	if err != nil {
		return nil, stateError(op, err)
	}
	lp, err := m.LP()
	if err != nil {
		return nil, stateError(op, err)
	}
	kind := solver.LPCandidates
	if e.pseudoCandidates {
		kind = solver.PseudoCandidates
	}
	cands, err := m.Candidates(kind)
	if err != nil {
		return nil, stateError(op, err)
	}

	scores := tensor.NewVectorFilled(len(vars), tensor.NA())
	for _, j := range cands {
		if j < 0 || j >= len(vars) {
			return nil, stateError(op, fmt.Errorf("%w: candidate %d", solver.ErrVarIndex, j))
		}
		res, err := m.StrongBranch(j)
		if err != nil {
			return nil, stateError(op, err)
		}
		down := childGain(res.Down, res.DownValid, res.DownInfeasible, lp.Objective)
		up := childGain(res.Up, res.UpValid, res.UpInfeasible, lp.Objective)
		scores[j] = productScore(down, up)
	}
	return scores, nil
}

// childGain is the dual bound improvement of a child over the parent LP. A
// child whose bound is unknown contributes no gain.
func childGain(bound float64, valid, infeasible bool, parent float64) float64 {
	switch {
	case infeasible:
		return infeasibleGain
	case !valid:
		return 0
	}
	return math.Min(math.Max(bound-parent, 0), infeasibleGain)
}

// Pseudocosts scores LP branching candidates by their pseudocosts. The result
// has one entry per variable; non-candidates are NA.
type Pseudocosts struct{}

// NewPseudocosts returns a Pseudocosts extractor.
func NewPseudocosts() *Pseudocosts {
	return &Pseudocosts{}
}

// Reset does nothing.
func (*Pseudocosts) Reset(solver.Model) error {
	return nil
}

// Extract implements Function. It fails with an invalid solver state error
// when no LP has been solved.
func (*Pseudocosts) Extract(m solver.Model, _ bool) (tensor.Vector, error) {
	const op = "pseudocosts"

	vars, err := m.Variables()
	if err != nil {
		return nil, stateError(op, err)
	}
	lp, err := m.LP()
	if err != nil {
		return nil, stateError(op, err)
	}
	cands, err := m.Candidates(solver.LPCandidates)
	if err != nil {
		return nil, stateError(op, err)
	}
	hist, err := m.History()
	if err != nil {
		return nil, stateError(op, err)
	}

	scores := tensor.NewVectorFilled(len(vars), tensor.NA())
	for _, j := range cands {
		if j < 0 || j >= len(vars) || j >= len(hist) || j >= len(lp.Columns) {
			return nil, stateError(op, fmt.Errorf("%w: candidate %d", solver.ErrVarIndex, j))
		}
		frac := solver.FeasFrac(lp.Columns[j].Solution)
		scores[j] = productScore(hist[j].PseudocostDown*frac, hist[j].PseudocostUp*(1-frac))
	}
	return scores, nil
}
