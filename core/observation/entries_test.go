package observation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/solver"
)

// stubModel serves fixed state. A nil lp reports solver.ErrNoLP.
type stubModel struct {
	solver.Model
	vars []solver.Variable
	cons []solver.Constraint
	lp   *solver.LP
}

func (m stubModel) Variables() ([]solver.Variable, error)     { return m.vars, nil }
func (m stubModel) Constraints() ([]solver.Constraint, error) { return m.cons, nil }
func (m stubModel) Incumbents() (solver.Incumbents, error)    { return solver.Incumbents{}, nil }

func (m stubModel) LP() (*solver.LP, error) {
	if m.lp == nil {
		return nil, solver.ErrNoLP
	}
	return m.lp, nil
}

func (m stubModel) Candidates(solver.CandidateKind) ([]int, error) {
	return []int{0}, nil
}

func (m stubModel) History() ([]solver.History, error) {
	return make([]solver.History, len(m.vars)), nil
}

func oneVariable() []solver.Variable {
	return []solver.Variable{{Name: "x", Type: solver.Binary, Lower: 0, Upper: 1, Objective: 1}}
}

func rowOf(c solver.Constraint) solver.Row {
	return solver.Row{Constraint: c}
}

// badEntryModel has one variable and a constraint referencing variable 5.
func badEntryModel() stubModel {
	bad := solver.Constraint{
		Name:    "bad",
		Lhs:     math.Inf(-1),
		Rhs:     1,
		Entries: []solver.Entry{{Var: 0, Coef: 1}, {Var: 5, Coef: 1}},
	}
	return stubModel{
		vars: oneVariable(),
		cons: []solver.Constraint{bad},
		lp: &solver.LP{
			NumLPs:  1,
			Columns: []solver.Column{{Solution: 0.5}},
			Rows:    []solver.Row{rowOf(bad)},
		},
	}
}

// =============================================================================
// Entry Index Tests
// =============================================================================

func TestExtractors_RejectOutOfRangeEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		extract func(solver.Model) error
	}{
		{"node_bipartite", func(m solver.Model) error {
			_, err := NewNodeBipartite(false).Extract(m, false)
			return err
		}},
		{"node_bipartite_cached", func(m solver.Model) error {
			_, err := NewNodeBipartite(true).Extract(m, false)
			return err
		}},
		{"problem_bipartite", func(m solver.Model) error {
			_, err := NewProblemBipartite(true).Extract(m, false)
			return err
		}},
		{"structural", func(m solver.Model) error {
			_, err := NewStructural(false).Extract(m, false)
			return err
		}},
		{"instance_summary", func(m solver.Model) error {
			_, err := NewInstanceSummary().Extract(m, false)
			return err
		}},
		{"capacity", func(m solver.Model) error {
			_, err := NewCapacity().Extract(m, false)
			return err
		}},
		{"weight", func(m solver.Model) error {
			_, err := NewWeight().Extract(m, false)
			return err
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			require.NotPanics(t, func() { err = tt.extract(badEntryModel()) })
			require.Error(t, err)
			assert.True(t, errors.Is(err, solver.ErrVarIndex), "got %v", err)
			assert.Equal(t, obserr.KindInvalidSolverState, obserr.KindOf(err))
		})
	}
}

func TestNodeBipartite_RejectsBadEntryWithoutLP(t *testing.T) {
	t.Parallel()

	m := badEntryModel()
	m.lp = nil
	_, err := NewNodeBipartite(true).Extract(m, false)
	assert.True(t, errors.Is(err, solver.ErrVarIndex), "got %v", err)
}

// =============================================================================
// NodeBipartite Cache Without LP
// =============================================================================

func TestNodeBipartite_DoesNotCacheProblemRows(t *testing.T) {
	t.Parallel()

	problemRow := solver.Constraint{Lhs: math.Inf(-1), Rhs: 1, Entries: []solver.Entry{{Var: 0, Coef: 1}}}
	lpRow := solver.Constraint{Lhs: math.Inf(-1), Rhs: 4, Entries: []solver.Entry{{Var: 0, Coef: 2}}}

	noLP := stubModel{vars: oneVariable(), cons: []solver.Constraint{problemRow}}
	withLP := stubModel{
		vars: oneVariable(),
		cons: []solver.Constraint{problemRow},
		lp: &solver.LP{
			NumLPs:  1,
			Columns: []solver.Column{{Solution: 1}},
			Rows:    []solver.Row{rowOf(lpRow)},
		},
	}

	e := NewNodeBipartite(true)
	require.NoError(t, e.Reset(noLP))

	first, err := e.Extract(noLP, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, first.RowFeatures.At(0, int(NodeRowBias)), tol)
	assert.False(t, e.static.Valid())

	second, err := e.Extract(withLP, false)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, second.RowFeatures.At(0, int(NodeRowBias)), tol)
	assert.InDelta(t, 2.0, second.EdgeFeatures.At(0, 0), tol)
	assert.True(t, e.static.Valid())

	want, err := NewNodeBipartite(false).Extract(withLP, false)
	require.NoError(t, err)
	assert.True(t, want.Equal(second))
}
