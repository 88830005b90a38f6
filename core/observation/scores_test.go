package observation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obserr "github.com/adalundhe/branchobs/core/errors"
	"github.com/adalundhe/branchobs/core/solver/snapshot"
)

// =============================================================================
// Strong Branching Tests
// =============================================================================

func TestStrongBranchingScores_ProductScore(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	scores, err := NewStrongBranchingScores(false).Extract(ep.Step(1), false)
	require.NoError(t, err)

	require.Len(t, scores, 3)
	assert.InDelta(t, 1.5*0.5, scores[0], 1e-9)
	assert.True(t, isNaN(scores[1]))
	assert.True(t, isNaN(scores[2]))
}

func TestStrongBranchingScores_NoCandidates(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	scores, err := NewStrongBranchingScores(false).Extract(ep.Step(0), false)
	require.NoError(t, err)

	assert.Len(t, scores, 3)
	assert.True(t, allNaN(scores))
}

func TestStrongBranchingScores_PseudoCandidatesSolveChildren(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	scores, err := NewStrongBranchingScores(true).Extract(ep.Step(1), false)
	require.NoError(t, err)

	// x1 = 3 is integral: the down child x1 <= 2 costs 0.5 and the up child
	// x1 >= 4 is infeasible under the local bound x1 <= 3.
	assert.InDelta(t, 0.75, scores[0], 1e-9)
	assert.InEpsilon(t, 0.5*infeasibleGain, scores[1], 1e-6)
	assert.True(t, isNaN(scores[2]))
}

func TestStrongBranchingScores_InfeasibleChild(t *testing.T) {
	t.Parallel()

	ep, err := snapshot.Parse([]byte(`
variables: [{name: x, type: integer, lower: 0, upper: 3, objective: 1}]
steps:
  - lp: {objective: 1.5, columns: [{solution: 1.5}]}
    strong_branching: [{var: 0, down: 2, up: 0, up_infeasible: true}]
`))
	require.NoError(t, err)

	scores, err := NewStrongBranchingScores(false).Extract(ep.Step(0), false)
	require.NoError(t, err)
	assert.InEpsilon(t, 0.5*infeasibleGain, scores[0], 1e-9)
}

func TestStrongBranchingScores_RequiresLP(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	_, err := NewStrongBranchingScores(false).Extract(ep.Step(2), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, obserr.ErrInvalidSolverState))
}

func TestChildGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bound      float64
		valid      bool
		infeasible bool
		want       float64
	}{
		{"improvement", 3, true, false, 2},
		{"no improvement clamps to zero", 0, true, false, 0},
		{"invalid", 10, false, false, 0},
		{"infeasible", 0, true, true, infeasibleGain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, childGain(tt.bound, tt.valid, tt.infeasible, 1))
		})
	}
}

// =============================================================================
// Pseudocost Tests
// =============================================================================

func TestPseudocosts_Scores(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	e := NewPseudocosts()
	require.NoError(t, e.Reset(ep.Step(1)))
	scores, err := e.Extract(ep.Step(1), false)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, scores[0], 1e-5)
	assert.True(t, isNaN(scores[1]))
	assert.True(t, isNaN(scores[2]))
}

func TestPseudocosts_RequiresLP(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	_, err := NewPseudocosts().Extract(ep.Step(2), true)
	assert.True(t, errors.Is(err, obserr.ErrInvalidSolverState))
}
