package snapshot

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/branchobs/core/solver"
)

const episodeYAML = `
name: small
variables:
  - {name: x0, type: binary, objective: -3}
  - {name: x1, type: integer, lower: 0, upper: 4, objective: -2}
  - {name: x2, type: continuous, lower: 0, objective: 1}
constraints:
  - {name: c0, rhs: 4, entries: [{var: 0, coef: 2}, {var: 1, coef: 1}]}
  - {name: c1, lhs: 1, entries: [{var: 2, coef: 1}]}
steps:
  - lp:
      objective: -7
      num_lps: 1
      columns:
        - {solution: 0, reduced_cost: 1, basis: lower}
        - {solution: 4, reduced_cost: 0, basis: upper}
        - {solution: 1, reduced_cost: 0, basis: basic}
      rows:
        - {constraint: 0, dual: -2}
        - {constraint: 1, dual: 1, basis: lower}
    node: {number: 1, depth: 0, lower_bound: -7, estimate: -7}
  - bounds: [{var: 1, upper: 3}]
    lp:
      objective: -6.5
      num_lps: 3
      columns:
        - {solution: 0.5, reduced_cost: 0, basis: basic}
        - {solution: 3, reduced_cost: -0.5, basis: upper, age: 1}
        - {solution: 1, reduced_cost: 0, basis: basic, age: 2}
    history:
      - {pseudocost_up: 2, pseudocost_down: 1, cutoff_up: 1}
      - {pseudocost_up: 0.5, pseudocost_down: 0.25}
      - {pseudocost_up: 0, pseudocost_down: 0}
    incumbent: [0, 2, 1]
    node: {number: 2, depth: 1, lower_bound: -6.5, estimate: -6.2, parent: 1, parent_lower_bound: -7}
    done: true
`

func loadEpisode(t *testing.T) *Episode {
	t.Helper()
	ep, err := Parse([]byte(episodeYAML))
	require.NoError(t, err)
	return ep
}

// =============================================================================
// Happy Path Tests
// =============================================================================

func TestParse_Structure(t *testing.T) {
	ep := loadEpisode(t)
	assert.Equal(t, "small", ep.Name)
	assert.Equal(t, 2, ep.Len())
	assert.False(t, ep.Done(0))
	assert.True(t, ep.Done(1))

	vars, err := ep.Step(0).Variables()
	require.NoError(t, err)
	require.Len(t, vars, 3)
	assert.Equal(t, solver.Binary, vars[0].Type)
	assert.Equal(t, 0.0, vars[0].Lower)
	assert.Equal(t, 1.0, vars[0].Upper)
	assert.True(t, math.IsInf(vars[2].Upper, 1))

	cons, err := ep.Step(0).Constraints()
	require.NoError(t, err)
	require.Len(t, cons, 2)
	assert.True(t, math.IsInf(cons[0].Lhs, -1))
	assert.Equal(t, 1.0, cons[1].Lhs)
	assert.Len(t, cons[0].Entries, 2)
}

func TestModel_StepBoundsAreLocal(t *testing.T) {
	ep := loadEpisode(t)

	root, _ := ep.Step(0).Variables()
	child, _ := ep.Step(1).Variables()
	assert.Equal(t, 4.0, root[1].Upper)
	assert.Equal(t, 3.0, child[1].Upper)
}

func TestModel_LPRowsAndActivity(t *testing.T) {
	lp, err := loadEpisode(t).Step(0).LP()
	require.NoError(t, err)

	require.Len(t, lp.Rows, 2)
	assert.Equal(t, 4.0, lp.Rows[0].Activity)
	assert.Equal(t, -2.0, lp.Rows[0].Dual)
	assert.Equal(t, solver.BasisLower, lp.Rows[1].Basis)
	assert.Equal(t, solver.BasisUpper, lp.Columns[1].Basis)
}

func TestModel_DefaultRowsFollowConstraints(t *testing.T) {
	lp, err := loadEpisode(t).Step(1).LP()
	require.NoError(t, err)

	require.Len(t, lp.Rows, 2)
	assert.Equal(t, "c0", lp.Rows[0].Name)
	assert.Equal(t, 4.0, lp.Rows[0].Activity)
	assert.Equal(t, 0.0, lp.Rows[0].Dual)
}

func TestModel_Candidates(t *testing.T) {
	ep := loadEpisode(t)

	lpc, err := ep.Step(0).Candidates(solver.LPCandidates)
	require.NoError(t, err)
	assert.Empty(t, lpc)

	lpc, err = ep.Step(1).Candidates(solver.LPCandidates)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, lpc)

	pseudo, err := ep.Step(1).Candidates(solver.PseudoCandidates)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pseudo)
}

func TestModel_FocusNode(t *testing.T) {
	ep := loadEpisode(t)

	root, err := ep.Step(0).FocusNode()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), root.ParentNumber)

	child, err := ep.Step(1).FocusNode()
	require.NoError(t, err)
	assert.Equal(t, int64(1), child.ParentNumber)
	assert.Equal(t, -7.0, child.ParentLowerBound)
	assert.Equal(t, 1, child.Depth)
}

func TestModel_HistoryDefaultsToZero(t *testing.T) {
	h, err := loadEpisode(t).Step(0).History()
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, solver.History{}, h[0])
}

func TestModel_StrongBranchSolvesChildren(t *testing.T) {
	res, err := loadEpisode(t).Step(1).StrongBranch(0)
	require.NoError(t, err)

	assert.True(t, res.DownValid)
	assert.True(t, res.UpValid)
	assert.False(t, res.DownInfeasible)
	assert.False(t, res.UpInfeasible)
	assert.InDelta(t, -5.0, res.Down, 1e-9)
	assert.InDelta(t, -6.0, res.Up, 1e-9)
}

func TestModel_StrongBranchRecorded(t *testing.T) {
	doc := `
variables:
  - {name: x, type: binary, objective: 1}
steps:
  - lp:
      objective: 0.5
      columns: [{solution: 0.5}]
    strong_branching: [{var: 0, down: 0, up: 1, up_infeasible: true}]
`
	ep, err := Parse([]byte(doc))
	require.NoError(t, err)

	res, err := ep.Step(0).StrongBranch(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Up)
	assert.True(t, res.UpInfeasible)
}

func TestModel_StrongBranchInfeasibleChild(t *testing.T) {
	doc := `
variables:
  - {name: x, type: integer, lower: 0, upper: 3, objective: 1}
constraints:
  - {name: c, lhs: 1.5, rhs: 1.8, entries: [{var: 0, coef: 1}]}
steps:
  - lp:
      objective: 1.5
      columns: [{solution: 1.5}]
`
	ep, err := Parse([]byte(doc))
	require.NoError(t, err)

	res, err := ep.Step(0).StrongBranch(0)
	require.NoError(t, err)
	assert.True(t, res.DownInfeasible, "x <= 1 violates x >= 1.5")
	assert.True(t, res.UpInfeasible, "x >= 2 violates x <= 1.8")
}

func TestLoad_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "ep.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(episodeYAML), 0o644))
	ep, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ep.Len())

	jsonPath := filepath.Join(dir, "ep.json")
	jsonDoc := `{"variables":[{"name":"x","type":"integer","objective":1}],"steps":[]}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0o644))
	ep, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Len(), "a document without steps yields one structural step")
	assert.True(t, ep.Done(0))
}

// =============================================================================
// Negative Path Tests
// =============================================================================

func TestModel_MissingState(t *testing.T) {
	ep, err := Parse([]byte(`variables: [{name: x, type: integer}]`))
	require.NoError(t, err)
	m := ep.Step(0)

	_, err = m.LP()
	assert.True(t, errors.Is(err, solver.ErrNoLP))

	_, err = m.Candidates(solver.LPCandidates)
	assert.True(t, errors.Is(err, solver.ErrNoLP))

	_, err = m.FocusNode()
	assert.True(t, errors.Is(err, solver.ErrNoFocusNode))

	_, err = m.StrongBranch(0)
	assert.True(t, errors.Is(err, solver.ErrNoLP))

	_, err = m.StrongBranch(7)
	assert.True(t, errors.Is(err, solver.ErrVarIndex))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", `variables: [{name: x, type: complex}]`},
		{"entry out of range", `
variables: [{name: x}]
constraints: [{name: c, rhs: 1, entries: [{var: 3, coef: 1}]}]`},
		{"column count", `
variables: [{name: x}, {name: y}]
steps: [{lp: {objective: 0, columns: [{solution: 0}]}}]`},
		{"bad basis", `
variables: [{name: x}]
steps: [{lp: {objective: 0, columns: [{solution: 0, basis: sideways}]}}]`},
		{"history length", `
variables: [{name: x}, {name: y}]
steps: [{history: [{pseudocost_up: 1, pseudocost_down: 1}]}]`},
		{"unknown kind", `
variables: [{name: x}]
constraints: [{name: c, kind: quadratic, rhs: 1, entries: [{var: 0, coef: 1}]}]`},
		{"malformed yaml", `variables: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Edge Case Tests
// =============================================================================

func TestParse_DropsZeroCoefficients(t *testing.T) {
	ep, err := Parse([]byte(`
variables: [{name: x}, {name: y}]
constraints: [{name: c, rhs: 1, entries: [{var: 0, coef: 0}, {var: 1, coef: 2}]}]`))
	require.NoError(t, err)

	cons, _ := ep.Step(0).Constraints()
	require.Len(t, cons[0].Entries, 1)
	assert.Equal(t, 1, cons[0].Entries[0].Var)
}

func TestSolveRelaxation_UnboundedFreeVariable(t *testing.T) {
	vars := []solver.Variable{{Objective: -1, Lower: math.Inf(-1), Upper: math.Inf(1)}}
	obj, infeasible, err := solveRelaxation(vars, []float64{math.Inf(-1)}, []float64{math.Inf(1)}, nil)
	require.NoError(t, err)
	assert.False(t, infeasible)
	assert.True(t, math.IsInf(obj, -1))
}
