package task_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

func constantLabelDataset(t *testing.T) *dataset.Dataset {
	input := make([][]bool, 10)
	for i := range input {
		input[i] = []bool{i%2 == 0, i%3 == 0, true, false}
	}
	costs := [][]float64{{0, 1}, {1, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)
	return ds
}

func TestNewClassifiesConstantLabelAsLeaf(t *testing.T) {
	ds := constantLabelDataset(t)
	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.Full(ds.NumFeatures())
	work := bitset.New(ds.NumRows())

	tk, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)

	require.InDelta(t, tk.Lowerbound(), tk.Upperbound(), 1e-9)
	require.True(t, tk.FeatureSet().Empty())
}

func TestUpdateClampsAndCollapses(t *testing.T) {
	ds := constantLabelDataset(t)
	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.New(ds.NumFeatures())
	featureSet.Set(0, true)
	work := bitset.New(ds.NumRows())

	tk, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)

	before := tk.Lowerbound()
	changed := tk.Update(true, before-1, tk.Upperbound()+1, 0)
	require.True(t, changed)
	require.LessOrEqual(t, tk.Lowerbound(), tk.Upperbound())
}

func TestScopeWidensEnvelope(t *testing.T) {
	ds := constantLabelDataset(t)
	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.Full(ds.NumFeatures())
	work := bitset.New(ds.NumRows())
	tk, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)

	tk.Scope(0) // no-op
	tk.Scope(0.3)
	require.Equal(t, 0.3, tk.Lowerscope())
	require.Equal(t, 0.3, tk.Upperscope())

	tk.Scope(0.1)
	require.Equal(t, 0.1, tk.Lowerscope())
	require.Equal(t, 0.3, tk.Upperscope())

	tk.Scope(0.5)
	require.Equal(t, 0.1, tk.Lowerscope())
	require.Equal(t, 0.5, tk.Upperscope())
}

func xorDataset(t *testing.T) *dataset.Dataset {
	input := [][]bool{
		{false, false, true, false},
		{false, true, false, true},
		{true, false, false, true},
		{true, true, true, false},
	}
	costs := [][]float64{{0, 1}, {1, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)
	return ds
}

func TestConcurrentUpdateNeverLosesATightening(t *testing.T) {
	ds := constantLabelDataset(t)
	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.New(ds.NumFeatures())
	featureSet.Set(0, true)
	work := bitset.New(ds.NumRows())

	tk, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)

	base := tk.Lowerbound()
	top := tk.Upperbound()

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		lower := base + float64(i)*1e-4
		upper := top - float64(i)*1e-4
		go func() {
			defer wg.Done()
			tk.Update(false, lower, upper, i)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, tk.Lowerbound(), tk.Upperbound())
	require.GreaterOrEqual(t, tk.Lowerbound(), base+float64(workers-1)*1e-4-1e-9)
	require.LessOrEqual(t, tk.Upperbound(), top-float64(workers-1)*1e-4+1e-9)
}

func TestCreateChildrenSplitsFeatureSet(t *testing.T) {
	ds := xorDataset(t)
	capture := bitset.Full(ds.NumRows())
	featureSet := bitset.Full(ds.NumFeatures())
	work := bitset.New(ds.NumRows())

	root, err := task.New(capture, featureSet, ds, 0.01, false, work)
	require.NoError(t, err)
	require.False(t, root.FeatureSet().Empty())

	neighbourhood := make([]*task.Task, 2*ds.NumFeatures())
	splitBuf := bitset.New(ds.NumRows())
	require.NoError(t, root.CreateChildren(ds, 0.01, false, neighbourhood, splitBuf, work))

	var created int
	for _, c := range neighbourhood {
		if c != nil {
			created++
		}
	}
	require.Greater(t, created, 0)
}
