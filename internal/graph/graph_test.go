package graph_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/graph"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

func oneRowTask(t *testing.T) *task.Task {
	input := [][]bool{{true, false}}
	costs := [][]float64{{0, 1}, {1, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)

	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.Full(ds.NumFeatures())
	work := bitset.New(ds.NumRows())
	tk, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)
	return tk
}

func TestInsertVertexIsIdempotent(t *testing.T) {
	g := graph.New(2)
	tk := oneRowTask(t)
	k := graph.KeyOf(tk.CaptureSet())

	first, inserted := g.InsertVertex(k, tk)
	require.True(t, inserted)
	require.Same(t, tk, first)

	other := oneRowTask(t)
	second, inserted := g.InsertVertex(k, other)
	require.False(t, inserted)
	require.Same(t, tk, second)
	require.Equal(t, 1, g.Size())
}

func TestConcurrentInsertVertexKeepsOneWinner(t *testing.T) {
	g := graph.New(4)
	tk := oneRowTask(t)
	k := graph.KeyOf(tk.CaptureSet())

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	winners := make([]*task.Task, n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			candidate := oneRowTask(t)
			winners[idx], _ = g.InsertVertex(k, candidate)
		}(i)
	}
	wg.Wait()

	first := winners[0]
	for _, w := range winners {
		require.Same(t, first, w)
	}
	require.Equal(t, 1, g.Size())
}

func TestBoundsCreateOnce(t *testing.T) {
	g := graph.New(1)
	tk := oneRowTask(t)
	k := graph.KeyOf(tk.CaptureSet())

	list, created := g.Bounds(k)
	require.True(t, created)
	list.Append(&graph.BoundEntry{Feature: 0, Lower: 0.1, Upper: 0.2})

	again, created := g.Bounds(k)
	require.False(t, created)
	require.Same(t, list, again)
	require.Len(t, again.Entries(), 1)
}

func TestChildAndTranslationRoundTrip(t *testing.T) {
	g := graph.New(1)
	parent := graph.Key("parent")
	ck := graph.ChildKey{Parent: parent, SignedFeature: 3}

	_, ok := g.FindChild(ck)
	require.False(t, ok)

	g.SetChild(ck, graph.Key("child"))
	child, ok := g.FindChild(ck)
	require.True(t, ok)
	require.Equal(t, graph.Key("child"), child)

	g.SetTranslation(ck, []int{2, 0, 1})
	order, ok := g.FindTranslation(ck)
	require.True(t, ok)
	require.Equal(t, []int{2, 0, 1}, order)
}

func TestEdgesUpsertAggregatesBitsAndMinScope(t *testing.T) {
	g := graph.New(1)
	child := graph.Key("child")
	adjacency := g.Edges(child)

	adjacency.Upsert("parent", 0, 4, 0.5)
	adjacency.Upsert("parent", 2, 4, 0.2)

	var seen *graph.BackEdge
	adjacency.ForEach(func(parent graph.Key, edge *graph.BackEdge) {
		require.Equal(t, graph.Key("parent"), parent)
		seen = edge
	})
	require.NotNil(t, seen)
	require.Equal(t, 0.2, seen.Scope)
	require.True(t, seen.FeatureBits.Get(0))
	require.True(t, seen.FeatureBits.Get(2))
	require.False(t, seen.FeatureBits.Get(1))

	again, ok := g.FindEdges(child)
	require.True(t, ok)
	require.Same(t, adjacency, again)
}

func TestClearResetsAllTables(t *testing.T) {
	g := graph.New(1)
	tk := oneRowTask(t)
	k := graph.KeyOf(tk.CaptureSet())
	g.InsertVertex(k, tk)
	g.Bounds(k)
	g.SetChild(graph.ChildKey{Parent: k, SignedFeature: 1}, graph.Key("x"))
	g.Edges(k)

	g.Clear()

	require.Equal(t, 0, g.Size())
	_, ok := g.FindVertex(k)
	require.False(t, ok)
	_, ok = g.FindChild(graph.ChildKey{Parent: k, SignedFeature: 1})
	require.False(t, ok)
	_, ok = g.FindEdges(k)
	require.False(t, ok)
}
