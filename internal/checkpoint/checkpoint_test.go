package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/checkpoint"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/graph"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

func fixtureGraph(t *testing.T) *graph.Graph {
	input := [][]bool{
		{false, true},
		{true, false},
		{true, true},
	}
	costs := [][]float64{{0, 1.0 / 3}, {1.0 / 3, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)

	capture := bitset.Full(ds.NumRows())
	features := bitset.Full(ds.NumFeatures())
	work := bitset.New(ds.NumRows())
	root, err := task.New(capture, features, ds, 0.01, false, work)
	require.NoError(t, err)

	g := graph.New(1)
	_, inserted := g.InsertVertex(graph.KeyOf(capture), root)
	require.True(t, inserted)
	return g
}

func TestCaptureWriteReadRoundTrip(t *testing.T) {
	g := fixtureGraph(t)
	snap := checkpoint.Capture(g, 42, 7, 0.1, 0.3)
	require.Equal(t, uint64(42), snap.Tick)
	require.Equal(t, 1, snap.GraphSize)
	require.Len(t, snap.Vertices, 1)

	path := filepath.Join(t.TempDir(), "snapshot.ckpt")
	require.NoError(t, checkpoint.Write(path, snap, nil))

	got, err := checkpoint.Read(path)
	require.NoError(t, err)
	require.Equal(t, snap.Tick, got.Tick)
	require.Equal(t, snap.GraphSize, got.GraphSize)
	require.Equal(t, snap.QueueDepth, got.QueueDepth)
	require.InDelta(t, snap.GlobalLower, got.GlobalLower, 1e-12)
	require.InDelta(t, snap.GlobalUpper, got.GlobalUpper, 1e-12)
	require.Equal(t, snap.Vertices[0].Key, got.Vertices[0].Key)
	require.InDelta(t, snap.Vertices[0].Support, got.Vertices[0].Support, 1e-12)
}

func TestReadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("not-a-checkpoint-file-at-all"), 0o644))

	_, err := checkpoint.Read(path)
	require.Error(t, err)
}
