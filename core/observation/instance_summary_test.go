package observation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceSummary_Features(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	e := NewInstanceSummary()
	require.NoError(t, e.Reset(ep.Step(0)))
	obs, err := e.Extract(ep.Step(0), false)
	require.NoError(t, err)
	require.Len(t, obs.Features, 33)

	tests := []struct {
		feature InstanceFeature
		want    float64
	}{
		{InstNbVariables, 3},
		{InstNbConstraints, 2},
		{InstNbNonzeroCoefs, 3},
		{InstVariableNodeDegreeMean, 1},
		{InstVariableNodeDegreeStd, 0},
		{InstConstraintNodeDegreeMean, 1.5},
		{InstConstraintNodeDegreeMax, 2},
		{InstConstraintNodeDegreeStd, 0.5},
		{InstNodeDegreeMean, 1.2},
		{InstNodeDegreeStd, 0.4},
		{InstNodeDegree25Q, 1},
		{InstNodeDegree75Q, 1},
		{InstEdgeDensity, 0.5},
		{InstLPSlackMean, 0},
		{InstLPSlackL2, 0},
		{InstLPObjectiveValue, -7},
		{InstConstraintCoefMean, (0.5 + 0.25 + 1) / 3},
		{InstDiscreteVarsSupportSizeMean, 3.5},
		{InstDiscreteVarsSupportSizeStd, 1.5},
		{InstRatioUnboundedDiscreteVars, 0},
		{InstRatioContinuousVars, 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.feature.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, obs.Get(tt.feature), 1e-9)
		})
	}

	byM := []float64{-1.5, -1, 0.5}
	m := (byM[0] + byM[1] + byM[2]) / 3
	var ss float64
	for _, x := range byM {
		ss += (x - m) * (x - m)
	}
	assert.InDelta(t, math.Sqrt(ss/3), obs.Get(InstObjectiveCoefMStd), 1e-9)
}

func TestInstanceSummary_NoLP(t *testing.T) {
	t.Parallel()

	ep := loadEpisode(t, "episode.yaml")
	obs, err := NewInstanceSummary().Extract(ep.Step(2), true)
	require.NoError(t, err)

	for _, f := range []InstanceFeature{InstLPSlackMean, InstLPSlackMax, InstLPSlackL2, InstLPObjectiveValue} {
		assert.True(t, isNaN(obs.Get(f)), f.String())
	}
	assert.Equal(t, 3.0, obs.Get(InstNbVariables))
}
