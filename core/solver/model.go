package solver

// Model is the read-only capability an observation function needs from the
// solver at a paused decision point. Returned slices belong to the caller's
// view of the current state and must not be modified.
//
// Methods fail with ErrNoLP, ErrNoFocusNode or ErrNotProbing when the state
// they describe does not exist at the current point of the solve.
type Model interface {
	// Variables returns the problem variables ordered by probing index.
	Variables() ([]Variable, error)

	// Constraints returns the linear constraints of the most recently
	// presolved problem.
	Constraints() ([]Constraint, error)

	// LP returns the relaxation solved at the focus node.
	LP() (*LP, error)

	// Incumbents returns the best and average primal solutions.
	Incumbents() (Incumbents, error)

	// Candidates returns the probing indices of the branching candidates.
	Candidates(kind CandidateKind) ([]int, error)

	// History returns the branching history, one entry per variable.
	History() ([]History, error)

	// StrongBranch evaluates both children of branching on variable v.
	StrongBranch(v int) (StrongBranchResult, error)

	// FocusNode describes the current node of the search tree.
	FocusNode() (Node, error)
}
