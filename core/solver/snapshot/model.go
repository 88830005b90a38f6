package snapshot

import (
	"fmt"
	"sort"

	"github.com/adalundhe/branchobs/core/solver"
)

// Model is one recorded decision point. It is immutable once built.
type Model struct {
	vars       []solver.Variable
	cons       []solver.Constraint
	lp         *solver.LP
	incumbents solver.Incumbents
	history    []solver.History
	strong     map[int]solver.StrongBranchResult
	node       *solver.Node
}

var _ solver.Model = (*Model)(nil)

func newModel(vars []solver.Variable, cons []solver.Constraint, sd StepDoc) (*Model, error) {
	m := &Model{
		vars:   append([]solver.Variable(nil), vars...),
		cons:   cons,
		strong: make(map[int]solver.StrongBranchResult, len(sd.StrongBranching)),
	}

	for _, b := range sd.Bounds {
		if b.Var < 0 || b.Var >= len(vars) {
			return nil, fmt.Errorf("bounds: %w: %d", solver.ErrVarIndex, b.Var)
		}
		m.vars[b.Var].Lower = boundOr(b.Lower, m.vars[b.Var].Lower)
		m.vars[b.Var].Upper = boundOr(b.Upper, m.vars[b.Var].Upper)
	}

	if sd.LP != nil {
		lp, err := buildLP(*sd.LP, m.vars, cons)
		if err != nil {
			return nil, fmt.Errorf("lp: %w", err)
		}
		m.lp = lp
	}

	if err := m.setIncumbents(sd); err != nil {
		return nil, err
	}

	if len(sd.History) > 0 && len(sd.History) != len(vars) {
		return nil, fmt.Errorf("history: %d entries for %d variables", len(sd.History), len(vars))
	}
	m.history = make([]solver.History, len(vars))
	for i, h := range sd.History {
		m.history[i] = solver.History{
			PseudocostUp:   h.PseudocostUp,
			PseudocostDown: h.PseudocostDown,
			CutoffUp:       h.CutoffUp,
			CutoffDown:     h.CutoffDown,
		}
	}

	for _, sb := range sd.StrongBranching {
		if sb.Var < 0 || sb.Var >= len(vars) {
			return nil, fmt.Errorf("strong branching: %w: %d", solver.ErrVarIndex, sb.Var)
		}
		m.strong[sb.Var] = solver.StrongBranchResult{
			Down:           sb.Down,
			Up:             sb.Up,
			DownValid:      true,
			UpValid:        true,
			DownInfeasible: sb.DownInfeasible,
			UpInfeasible:   sb.UpInfeasible,
		}
	}

	if sd.Node != nil {
		m.node = buildNode(*sd.Node)
	}
	return m, nil
}

func (m *Model) setIncumbents(sd StepDoc) error {
	if sd.Incumbent != nil && len(sd.Incumbent) != len(m.vars) {
		return fmt.Errorf("incumbent: %d values for %d variables", len(sd.Incumbent), len(m.vars))
	}
	if sd.Average != nil && len(sd.Average) != len(m.vars) {
		return fmt.Errorf("average: %d values for %d variables", len(sd.Average), len(m.vars))
	}
	m.incumbents = solver.Incumbents{Best: sd.Incumbent, Average: sd.Average}
	return nil
}

func buildLP(doc LPDoc, vars []solver.Variable, cons []solver.Constraint) (*solver.LP, error) {
	if len(doc.Columns) != len(vars) {
		return nil, fmt.Errorf("%d columns for %d variables", len(doc.Columns), len(vars))
	}
	lp := &solver.LP{
		Objective: doc.Objective,
		NumLPs:    doc.NumLPs,
		Columns:   make([]solver.Column, len(vars)),
	}
	for i, cd := range doc.Columns {
		basis, err := parseBasis(cd.Basis)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		lp.Columns[i] = solver.Column{
			Solution:    cd.Solution,
			ReducedCost: cd.ReducedCost,
			Basis:       basis,
			Age:         cd.Age,
		}
	}

	rowDocs := doc.Rows
	if len(rowDocs) == 0 {
		rowDocs = make([]RowDoc, len(cons))
		for i := range cons {
			idx := i
			rowDocs[i] = RowDoc{Constraint: &idx}
		}
	}
	for i, rd := range rowDocs {
		row, err := buildRow(rd, vars, cons, lp.Columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		lp.Rows = append(lp.Rows, row)
	}
	return lp, nil
}

func buildRow(rd RowDoc, vars []solver.Variable, cons []solver.Constraint, cols []solver.Column) (solver.Row, error) {
	var c solver.Constraint
	if rd.Constraint != nil {
		if *rd.Constraint < 0 || *rd.Constraint >= len(cons) {
			return solver.Row{}, fmt.Errorf("constraint index %d out of range", *rd.Constraint)
		}
		c = cons[*rd.Constraint]
	} else {
		cd := ConstraintDoc{Lhs: rd.Lhs, Rhs: rd.Rhs, Entries: rd.Entries}
		var err error
		if c, err = cd.constraint(len(vars)); err != nil {
			return solver.Row{}, err
		}
	}
	basis, err := parseBasis(rd.Basis)
	if err != nil {
		return solver.Row{}, err
	}

	activity := rd.Constant
	for _, e := range c.Entries {
		activity += e.Coef * cols[e.Var].Solution
	}
	return solver.Row{
		Constraint: c,
		Constant:   rd.Constant,
		Activity:   activity,
		Dual:       rd.Dual,
		Age:        rd.Age,
		Basis:      basis,
	}, nil
}

func buildNode(nd NodeDoc) *solver.Node {
	n := &solver.Node{
		Number:           nd.Number,
		Depth:            nd.Depth,
		LowerBound:       nd.LowerBound,
		Estimate:         nd.Estimate,
		NAddedConss:      nd.AddedConss,
		NAddedVars:       nd.AddedVars,
		ParentNumber:     -1,
		ParentLowerBound: nd.LowerBound,
	}
	if nd.Parent != nil {
		n.ParentNumber = *nd.Parent
		n.ParentLowerBound = boundOr(nd.ParentLowerBound, nd.LowerBound)
	}
	return n
}

// Variables implements solver.Model. Bounds are the local bounds of the step.
func (m *Model) Variables() ([]solver.Variable, error) {
	return m.vars, nil
}

// Constraints implements solver.Model.
func (m *Model) Constraints() ([]solver.Constraint, error) {
	return m.cons, nil
}

// LP implements solver.Model.
func (m *Model) LP() (*solver.LP, error) {
	if m.lp == nil {
		return nil, solver.ErrNoLP
	}
	return m.lp, nil
}

// Incumbents implements solver.Model.
func (m *Model) Incumbents() (solver.Incumbents, error) {
	return m.incumbents, nil
}

// Candidates implements solver.Model. LP candidates need a solved LP.
func (m *Model) Candidates(kind solver.CandidateKind) ([]int, error) {
	var out []int
	switch kind {
	case solver.LPCandidates:
		if m.lp == nil {
			return nil, solver.ErrNoLP
		}
		for i, v := range m.vars {
			if v.Type.IsIntegral() && solver.IsFractional(m.lp.Columns[i].Solution) {
				out = append(out, i)
			}
		}
	case solver.PseudoCandidates:
		for i, v := range m.vars {
			if v.Type.IsIntegral() && !solver.IsFixed(v.Lower, v.Upper) {
				out = append(out, i)
			}
		}
	default:
		return nil, fmt.Errorf("snapshot: unknown candidate kind %d", kind)
	}
	sort.Ints(out)
	return out, nil
}

// History implements solver.Model. Variables without recorded history report zeros.
func (m *Model) History() ([]solver.History, error) {
	return m.history, nil
}

// StrongBranch implements solver.Model. Recorded results are returned as is;
// otherwise both child relaxations are solved from the LP rows of the step.
func (m *Model) StrongBranch(v int) (solver.StrongBranchResult, error) {
	if v < 0 || v >= len(m.vars) {
		return solver.StrongBranchResult{}, fmt.Errorf("%w: %d", solver.ErrVarIndex, v)
	}
	if res, ok := m.strong[v]; ok {
		return res, nil
	}
	if m.lp == nil {
		return solver.StrongBranchResult{}, solver.ErrNoLP
	}
	return strongBranch(m.vars, m.lp, v)
}

// FocusNode implements solver.Model.
func (m *Model) FocusNode() (solver.Node, error) {
	if m.node == nil {
		return solver.Node{}, solver.ErrNoFocusNode
	}
	return *m.node, nil
}
