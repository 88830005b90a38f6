package observation

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/branchobs/core/solver"
	"github.com/adalundhe/branchobs/core/tensor"
)

// =============================================================================
// Map and Erase Tests
// =============================================================================

func TestMap_ExtractsEveryFunction(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	m := NewMap(map[string]Function[any]{
		"scores":  Erase[tensor.Vector](NewPseudocosts()),
		"node":    Erase[FocusNodeObs](NewFocusNode()),
		"nothing": Erase[NothingObs](Nothing{}),
	})
	assert.Equal(t, []string{"node", "nothing", "scores"}, m.Names())

	require.NoError(t, m.Reset(ep.Step(0)))
	obs, err := m.Extract(ep.Step(1), false)
	require.NoError(t, err)

	require.Len(t, obs, 3)
	assert.IsType(t, tensor.Vector{}, obs["scores"])
	assert.IsType(t, FocusNodeObs{}, obs["node"])
	assert.Equal(t, NothingObs{}, obs["nothing"])
}

func TestMap_FirstErrorAborts(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	m := NewMap(map[string]Function[any]{
		"structural": Erase[StructuralObs](NewStructural(false)),
		"summary":    Erase[InstanceSummaryObs](NewInstanceSummary()),
	})

	obs, err := m.Extract(ep.Step(2), true)
	require.Error(t, err)
	assert.Nil(t, obs)
	assert.Contains(t, err.Error(), "structural")
}

func TestErase_PropagatesErrors(t *testing.T) {
	t.Parallel()

	f := Erase[NodeBipartiteObs](NewNodeBipartite(false))
	obs, err := f.Extract(failingModel{err: solver.ErrNoLP}, false)
	assert.Nil(t, obs)
	assert.True(t, errors.Is(err, solver.ErrNoLP))
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistry_BuildsEveryExtractor(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	for _, name := range Extractors() {
		t.Run(name, func(t *testing.T) {
			f, err := New(name, Settings{Cache: true, Normalize: true})
			require.NoError(t, err)
			require.NoError(t, f.Reset(ep.Step(1)))
			obs, err := f.Extract(ep.Step(1), false)
			require.NoError(t, err)
			assert.NotNil(t, obs)

			_, ok := SchemasOf(name)
			assert.True(t, ok)
		})
	}
}

func TestRegistry_NewVector(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "knapsack.yaml")
	f, err := NewVector("capacity", Settings{})
	require.NoError(t, err)
	require.NoError(t, f.Reset(ep.Step(0)))
	v, err := f.Extract(ep.Step(0), false)
	require.NoError(t, err)
	assert.Len(t, v, 5)

	assert.True(t, IsVector("strong_branching_scores"))
	assert.False(t, IsVector("structural"))
	assert.False(t, IsVector("khalil"))

	_, err = NewVector("structural", Settings{})
	assert.Error(t, err)
	_, err = NewVector("khalil", Settings{})
	assert.Error(t, err)
}

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()

	_, err := New("khalil", Settings{})
	assert.Error(t, err)
	_, ok := SchemasOf("khalil")
	assert.False(t, ok)
}

// =============================================================================
// Instrument Tests
// =============================================================================

func TestInstrument_RecordsDurationsAndErrors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	ep := loadEpisode(t, "episode.yaml")
	f := Instrument[tensor.Vector]("pseudocosts", NewPseudocosts(), metrics)
	require.NoError(t, f.Reset(ep.Step(0)))

	_, err = f.Extract(ep.Step(1), false)
	require.NoError(t, err)
	_, err = f.Extract(ep.Step(2), true)
	require.Error(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("pseudocosts", "invalid_solver_state")))
}

func TestInstrument_NilMetricsIsPassthrough(t *testing.T) {
	t.Parallel()

	f := NewPseudocosts()
	assert.Same(t, f, Instrument[tensor.Vector]("pseudocosts", f, nil).(*Pseudocosts))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
