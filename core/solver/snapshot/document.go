package snapshot

import (
	"fmt"
	"math"

	"github.com/adalundhe/branchobs/core/solver"
)

// Document is the serialized form of one episode: the problem structure,
// fixed for the episode, followed by the solver state at each decision point.
type Document struct {
	Name        string          `yaml:"name" json:"name"`
	Variables   []VariableDoc   `yaml:"variables" json:"variables"`
	Constraints []ConstraintDoc `yaml:"constraints" json:"constraints"`
	Steps       []StepDoc       `yaml:"steps" json:"steps"`
}

// VariableDoc describes a variable. Missing bounds are infinite.
type VariableDoc struct {
	Name      string   `yaml:"name" json:"name"`
	Type      string   `yaml:"type" json:"type"`
	Lower     *float64 `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper     *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
	Objective float64  `yaml:"objective" json:"objective"`
}

// EntryDoc is one coefficient of a constraint.
type EntryDoc struct {
	Var  int     `yaml:"var" json:"var"`
	Coef float64 `yaml:"coef" json:"coef"`
}

// ConstraintDoc describes a linear constraint. Missing sides are infinite.
type ConstraintDoc struct {
	Name    string     `yaml:"name" json:"name"`
	Kind    string     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Lhs     *float64   `yaml:"lhs,omitempty" json:"lhs,omitempty"`
	Rhs     *float64   `yaml:"rhs,omitempty" json:"rhs,omitempty"`
	Entries []EntryDoc `yaml:"entries" json:"entries"`
}

// StepDoc is the solver state at one decision point.
type StepDoc struct {
	Bounds          []BoundDoc        `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	LP              *LPDoc            `yaml:"lp,omitempty" json:"lp,omitempty"`
	Incumbent       []float64         `yaml:"incumbent,omitempty" json:"incumbent,omitempty"`
	Average         []float64         `yaml:"average,omitempty" json:"average,omitempty"`
	History         []HistoryDoc      `yaml:"history,omitempty" json:"history,omitempty"`
	StrongBranching []StrongBranchDoc `yaml:"strong_branching,omitempty" json:"strong_branching,omitempty"`
	Node            *NodeDoc          `yaml:"node,omitempty" json:"node,omitempty"`
	Done            bool              `yaml:"done,omitempty" json:"done,omitempty"`
}

// BoundDoc overrides the local bounds of a variable at a step.
type BoundDoc struct {
	Var   int      `yaml:"var" json:"var"`
	Lower *float64 `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// LPDoc is the relaxation solved at a step. When Rows is empty the LP rows
// are the problem constraints, in order, with zero duals.
type LPDoc struct {
	Objective float64     `yaml:"objective" json:"objective"`
	NumLPs    int         `yaml:"num_lps" json:"num_lps"`
	Columns   []ColumnDoc `yaml:"columns" json:"columns"`
	Rows      []RowDoc    `yaml:"rows,omitempty" json:"rows,omitempty"`
}

// ColumnDoc is the LP data of one variable.
type ColumnDoc struct {
	Solution    float64 `yaml:"solution" json:"solution"`
	ReducedCost float64 `yaml:"reduced_cost" json:"reduced_cost"`
	Basis       string  `yaml:"basis,omitempty" json:"basis,omitempty"`
	Age         int     `yaml:"age,omitempty" json:"age,omitempty"`
}

// RowDoc is one LP row. It either references a problem constraint by index or
// carries its own structure, as for cutting planes.
type RowDoc struct {
	Constraint *int       `yaml:"constraint,omitempty" json:"constraint,omitempty"`
	Lhs        *float64   `yaml:"lhs,omitempty" json:"lhs,omitempty"`
	Rhs        *float64   `yaml:"rhs,omitempty" json:"rhs,omitempty"`
	Entries    []EntryDoc `yaml:"entries,omitempty" json:"entries,omitempty"`
	Constant   float64    `yaml:"constant,omitempty" json:"constant,omitempty"`
	Dual       float64    `yaml:"dual,omitempty" json:"dual,omitempty"`
	Age        int        `yaml:"age,omitempty" json:"age,omitempty"`
	Basis      string     `yaml:"basis,omitempty" json:"basis,omitempty"`
}

// HistoryDoc is the branching history of one variable.
type HistoryDoc struct {
	PseudocostUp   float64 `yaml:"pseudocost_up" json:"pseudocost_up"`
	PseudocostDown float64 `yaml:"pseudocost_down" json:"pseudocost_down"`
	CutoffUp       float64 `yaml:"cutoff_up,omitempty" json:"cutoff_up,omitempty"`
	CutoffDown     float64 `yaml:"cutoff_down,omitempty" json:"cutoff_down,omitempty"`
}

// StrongBranchDoc is a recorded strong branching result.
type StrongBranchDoc struct {
	Var            int     `yaml:"var" json:"var"`
	Down           float64 `yaml:"down" json:"down"`
	Up             float64 `yaml:"up" json:"up"`
	DownInfeasible bool    `yaml:"down_infeasible,omitempty" json:"down_infeasible,omitempty"`
	UpInfeasible   bool    `yaml:"up_infeasible,omitempty" json:"up_infeasible,omitempty"`
}

// NodeDoc describes the focus node. A nil Parent marks the root.
type NodeDoc struct {
	Number           int64    `yaml:"number" json:"number"`
	Depth            int      `yaml:"depth" json:"depth"`
	LowerBound       float64  `yaml:"lower_bound" json:"lower_bound"`
	Estimate         float64  `yaml:"estimate" json:"estimate"`
	AddedConss       int      `yaml:"added_conss,omitempty" json:"added_conss,omitempty"`
	AddedVars        int      `yaml:"added_vars,omitempty" json:"added_vars,omitempty"`
	Parent           *int64   `yaml:"parent,omitempty" json:"parent,omitempty"`
	ParentLowerBound *float64 `yaml:"parent_lower_bound,omitempty" json:"parent_lower_bound,omitempty"`
}

func boundOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (d VariableDoc) variable(index int) (solver.Variable, error) {
	typ := solver.Continuous
	if d.Type != "" {
		var ok bool
		if typ, ok = solver.ParseVarType(d.Type); !ok {
			return solver.Variable{}, fmt.Errorf("variable %d: unknown type %q", index, d.Type)
		}
	}
	lower, upper := boundOr(d.Lower, math.Inf(-1)), boundOr(d.Upper, math.Inf(1))
	if typ == solver.Binary {
		lower, upper = boundOr(d.Lower, 0), boundOr(d.Upper, 1)
	}
	return solver.Variable{
		Index:     index,
		Name:      d.Name,
		Type:      typ,
		Lower:     lower,
		Upper:     upper,
		Objective: d.Objective,
	}, nil
}

func entries(docs []EntryDoc, nVars int) ([]solver.Entry, error) {
	out := make([]solver.Entry, 0, len(docs))
	for _, e := range docs {
		if e.Var < 0 || e.Var >= nVars {
			return nil, fmt.Errorf("%w: %d", solver.ErrVarIndex, e.Var)
		}
		if e.Coef == 0 {
			continue
		}
		out = append(out, solver.Entry{Var: e.Var, Coef: e.Coef})
	}
	return out, nil
}

func (d ConstraintDoc) constraint(nVars int) (solver.Constraint, error) {
	es, err := entries(d.Entries, nVars)
	if err != nil {
		return solver.Constraint{}, fmt.Errorf("constraint %q: %w", d.Name, err)
	}
	kind := solver.Linear
	switch d.Kind {
	case "", "linear":
	case "knapsack":
		kind = solver.Knapsack
	default:
		return solver.Constraint{}, fmt.Errorf("constraint %q: unknown kind %q", d.Name, d.Kind)
	}
	return solver.Constraint{
		Name:    d.Name,
		Kind:    kind,
		Lhs:     boundOr(d.Lhs, math.Inf(-1)),
		Rhs:     boundOr(d.Rhs, math.Inf(1)),
		Entries: es,
	}, nil
}

func parseBasis(name string) (solver.BasisStatus, error) {
	if name == "" {
		return solver.BasisBasic, nil
	}
	s, ok := solver.ParseBasisStatus(name)
	if !ok {
		return 0, fmt.Errorf("unknown basis status %q", name)
	}
	return s, nil
}
