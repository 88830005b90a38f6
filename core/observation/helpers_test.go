package observation

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adalundhe/branchobs/core/solver/snapshot"
)

const tol = 1e-12

func loadEpisode(t *testing.T, name string) *snapshot.Episode {
	t.Helper()
	ep, err := snapshot.Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return ep
}

func isNaN(v float64) bool {
	return math.IsNaN(v)
}

func allNaN(xs []float64) bool {
	for _, x := range xs {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}
