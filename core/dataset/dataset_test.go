package dataset

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/branchobs/core/observation"
	"github.com/adalundhe/branchobs/core/solver/snapshot"
	"github.com/adalundhe/branchobs/core/tensor"
)

func loadEpisode(t *testing.T) *snapshot.Episode {
	t.Helper()
	ep, err := snapshot.Load(filepath.Join("testdata", "episode.yaml"))
	require.NoError(t, err)
	return ep
}

func newCollector(sink Sink) *Collector {
	features := observation.NewMap(map[string]observation.Function[any]{
		"node_bipartite": observation.Erase[observation.NodeBipartiteObs](observation.NewNodeBipartite(true)),
		"focus_node":     observation.Erase[observation.FocusNodeObs](observation.NewFocusNode()),
	})
	return NewCollector(features, observation.NewStrongBranchingScores(false), sink, nil)
}

func sample(episode string, step int) Sample {
	return Sample{
		ID:       uuid.New(),
		Episode:  episode,
		Step:     step,
		Features: map[string][]byte{"nothing": {}},
		Target:   tensor.Vector{float64(step), tensor.NA()},
	}
}

// =============================================================================
// Collector Tests
// =============================================================================

func TestCollector_RunSkipsUnsupportedSteps(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer(16)
	require.NoError(t, err)

	n, err := newCollector(buf).Run(context.Background(), "three-by-two", loadEpisode(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "step 2 has no LP for the target")

	samples := buf.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, 0, samples[0].Step)
	assert.Equal(t, 1, samples[1].Step)

	var node observation.FocusNodeObs
	require.NoError(t, samples[1].Decode("focus_node", &node))
	assert.Equal(t, int64(2), node.Number)

	var graph observation.NodeBipartiteObs
	require.NoError(t, samples[1].Decode("node_bipartite", &graph))
	assert.Equal(t, 3, graph.EdgeFeatures.NNZ())

	target := samples[1].Target
	require.Len(t, target, 3)
	assert.InDelta(t, 1.5*0.5, target[0], 1e-9)
	assert.True(t, math.IsNaN(target[1]))
}

func TestCollector_SinkFailureAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	sink := SinkFunc(func(context.Context, Sample) error { return boom })

	n, err := newCollector(sink).Run(context.Background(), "e", loadEpisode(t))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, boom)
}

func TestCollector_CanceledContext(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer(4)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newCollector(buf).Run(ctx, "e", loadEpisode(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestSample_DecodeMissingFeature(t *testing.T) {
	t.Parallel()

	var v tensor.Vector
	assert.Error(t, sample("e", 0).Decode("structural", &v))
}

// =============================================================================
// Buffer Tests
// =============================================================================

func TestBuffer_EvictsOldest(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer(2)
	require.NoError(t, err)

	ctx := context.Background()
	first, second, third := sample("e", 0), sample("e", 1), sample("e", 2)
	for _, s := range []Sample{first, second, third} {
		require.NoError(t, buf.Add(ctx, s))
	}

	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, int64(1), buf.Evicted())
	_, ok := buf.Get(first.ID)
	assert.False(t, ok)

	got := buf.Samples()
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)
}

func TestBuffer_Drain(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer(8)
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Add(ctx, sample("e", i)))
	}

	var steps []int
	failAt := 2
	sink := SinkFunc(func(_ context.Context, s Sample) error {
		if s.Step == failAt {
			return errors.New("rejected")
		}
		steps = append(steps, s.Step)
		return nil
	})

	require.Error(t, buf.Drain(ctx, sink))
	assert.Equal(t, []int{0, 1}, steps)
	assert.Equal(t, 1, buf.Len())
	assert.Zero(t, buf.Evicted())

	failAt = -1
	require.NoError(t, buf.Drain(ctx, sink))
	assert.Equal(t, []int{0, 1, 2}, steps)
	assert.Zero(t, buf.Len())
}

func TestNewBuffer_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := NewBuffer(0)
	assert.Error(t, err)
}

// =============================================================================
// SQLiteStore Tests
// =============================================================================

func openStore(t *testing.T, hotCache int64) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "samples.db"), hotCache)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, hot := range []int64{0, 1 << 20} {
		store := openStore(t, hot)
		ctx := context.Background()

		s := sample("e", 3)
		s.Done = true
		s.Features["focus_node"] = []byte{1, 2, 3}
		require.NoError(t, store.Add(ctx, s))

		for i := 0; i < 2; i++ {
			got, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, s.ID, got.ID)
			assert.Equal(t, "e", got.Episode)
			assert.Equal(t, 3, got.Step)
			assert.True(t, got.Done)
			assert.Equal(t, s.Features, got.Features)
			assert.True(t, s.Target.Equal(got.Target))
		}

		stats := store.Stats()
		assert.Equal(t, int64(2), stats.HotHits+stats.ColdHits)
		assert.Zero(t, stats.Misses)
	}
}

func TestSQLiteStore_HotCacheIsolatesCallers(t *testing.T) {
	t.Parallel()

	store := openStore(t, 1<<20)
	ctx := context.Background()

	s := sample("e", 1)
	s.Features["focus_node"] = []byte{1, 2, 3}
	require.NoError(t, store.Add(ctx, s))
	want := s.Clone()

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Features, got.Features)
		assert.True(t, want.Target.Equal(got.Target))

		got.Features["focus_node"][0] = 99
		got.Features["extra"] = []byte{7}
		if len(got.Target) > 0 {
			got.Target[0] = 42
		}
	}
	assert.Positive(t, store.Stats().HotHits)
}

func TestSample_Clone(t *testing.T) {
	t.Parallel()

	s := sample("e", 0)
	s.Features["a"] = []byte{1}
	c := s.Clone()
	c.Features["a"][0] = 2
	c.Target[0] = 5

	assert.Equal(t, []byte{1}, s.Features["a"])
	assert.NotEqual(t, 5.0, s.Target[0])
}

func TestSQLiteStore_NilTarget(t *testing.T) {
	t.Parallel()

	store := openStore(t, 0)
	ctx := context.Background()

	s := sample("e", 0)
	s.Target = nil
	require.NoError(t, store.Add(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Target)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	t.Parallel()

	store := openStore(t, 1<<20)
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), store.Stats().Misses)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	t.Parallel()

	store := openStore(t, 0)
	ctx := context.Background()
	s := sample("e", 0)
	require.NoError(t, store.Add(ctx, s))
	assert.Error(t, store.Add(ctx, s))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_EpisodeAndReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "samples.db")
	store, err := OpenSQLite(path, 0)
	require.NoError(t, err)

	buf, err := NewBuffer(8)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = newCollector(buf).Run(ctx, "three-by-two", loadEpisode(t))
	require.NoError(t, err)
	require.NoError(t, buf.Add(ctx, sample("other", 0)))
	require.NoError(t, buf.Drain(ctx, store))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path, 0)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	samples, err := store.Episode(ctx, "three-by-two")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 0, samples[0].Step)
	assert.Equal(t, 1, samples[1].Step)
	assert.Contains(t, samples[1].Features, "node_bipartite")
	assert.Len(t, samples[1].Target, 3)
}
