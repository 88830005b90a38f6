// Package solver defines the read-only view of a branch-and-bound solver that
// observation functions consume.
//
// Implementations adapt a concrete solver (or a recorded snapshot of one) to
// the Model interface. Extractors never mutate a Model.
package solver

import "errors"

// VarType is the integrality type of a variable.
type VarType uint8

const (
	// Binary variables take values in {0, 1}.
	Binary VarType = iota
	// Integer variables take integral values.
	Integer
	// ImplicitInteger variables are continuous but integral in every solution.
	ImplicitInteger
	// Continuous variables take real values.
	Continuous
)

var varTypeNames = map[VarType]string{
	Binary:          "binary",
	Integer:         "integer",
	ImplicitInteger: "implicit_integer",
	Continuous:      "continuous",
}

func (t VarType) String() string {
	if name, ok := varTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseVarType maps a name produced by VarType.String back to its value.
func ParseVarType(name string) (VarType, bool) {
	for t, n := range varTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// IsIntegral reports whether the type requires integral values.
func (t VarType) IsIntegral() bool {
	return t != Continuous
}

// BasisStatus is the simplex basis status of an LP column or row.
type BasisStatus uint8

const (
	// BasisLower indicates the variable is at its lower bound.
	BasisLower BasisStatus = iota
	// BasisBasic indicates the variable is basic.
	BasisBasic
	// BasisUpper indicates the variable is at its upper bound.
	BasisUpper
	// BasisZero indicates the variable is free and set to zero.
	BasisZero
)

var basisNames = map[BasisStatus]string{
	BasisLower: "lower",
	BasisBasic: "basic",
	BasisUpper: "upper",
	BasisZero:  "zero",
}

func (s BasisStatus) String() string {
	if name, ok := basisNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseBasisStatus maps a name produced by BasisStatus.String back to its value.
func ParseBasisStatus(name string) (BasisStatus, bool) {
	for s, n := range basisNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// ConstraintKind hints at the structure of a constraint.
type ConstraintKind uint8

const (
	// Linear is a general linear constraint.
	Linear ConstraintKind = iota
	// Knapsack is a capacity constraint over binary items with positive integral weights.
	Knapsack
)

// CandidateKind selects a branching candidate set.
type CandidateKind uint8

const (
	// LPCandidates are integral variables with a fractional LP value.
	LPCandidates CandidateKind = iota
	// PseudoCandidates are all integral variables whose local bounds are not fixed.
	PseudoCandidates
)

// Variable is a column of the problem. Index is the probing index, stable for
// the whole episode. Absent bounds are infinite.
type Variable struct {
	Index     int
	Name      string
	Type      VarType
	Lower     float64
	Upper     float64
	Objective float64
}

// Entry is one non-zero coefficient of a constraint.
type Entry struct {
	Var  int
	Coef float64
}

// Constraint is a linear constraint Lhs <= Σ Coef·x[Var] <= Rhs. Absent sides
// are infinite.
type Constraint struct {
	Name    string
	Kind    ConstraintKind
	Lhs     float64
	Rhs     float64
	Entries []Entry
}

// Row is an LP row at the focus node together with its solution data.
// Activity includes Constant.
type Row struct {
	Constraint
	Constant float64
	Activity float64
	Dual     float64
	Age      int
	Basis    BasisStatus
}

// Column is the LP data of one variable at the focus node.
type Column struct {
	Solution    float64
	ReducedCost float64
	Basis       BasisStatus
	Age         int
}

// LP is the solved relaxation at the focus node. Columns is aligned with the
// variable ordering.
type LP struct {
	Objective float64
	NumLPs    int
	Columns   []Column
	Rows      []Row
}

// Incumbents summarizes the primal solutions found so far. Best is nil when
// no incumbent exists, Average is nil when no solution was found.
type Incumbents struct {
	Best    []float64
	Average []float64
}

// History is the branching history of one variable. Pseudocosts are per unit
// of change of the variable.
type History struct {
	PseudocostUp   float64
	PseudocostDown float64
	CutoffUp       float64
	CutoffDown     float64
}

// StrongBranchResult reports the dual bounds of both children obtained by
// strong branching on a variable.
type StrongBranchResult struct {
	Down           float64
	Up             float64
	DownValid      bool
	UpValid        bool
	DownInfeasible bool
	UpInfeasible   bool
}

// Node describes the focus node of the search tree. ParentNumber is -1 at the root.
type Node struct {
	Number           int64
	Depth            int
	LowerBound       float64
	Estimate         float64
	NAddedConss      int
	NAddedVars       int
	ParentNumber     int64
	ParentLowerBound float64
}

// Errors reported by Model implementations when the requested state does not exist.
var (
	ErrNoLP        = errors.New("solver: no LP solved at the focus node")
	ErrNoFocusNode = errors.New("solver: no focus node")
	ErrNotProbing  = errors.New("solver: strong branching unavailable")
	ErrVarIndex    = errors.New("solver: variable index out of range")
)
