package gosdt_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	gosdt "github.com/vishalbelsare/gosdt-guesses"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
)

func singleSampleDataset(t *testing.T) *dataset.Dataset {
	input := [][]bool{{true, true, false}}
	costs := [][]float64{{0, 1}, {1, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)
	return ds
}

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

// xorDataset is normalized so a full row misclassification contributes
// exactly 1/N to loss, matching spec.md's worked scenario 3/4 arithmetic.
func xorDataset(t *testing.T) *dataset.Dataset {
	input := [][]bool{
		{false, false, true, false},
		{false, true, false, true},
		{true, false, false, true},
		{true, true, true, false},
	}
	costs := [][]float64{{0, 0.25}, {0.25, 0}}
	ds, err := dataset.New(input, costs, nil)
	require.NoError(t, err)
	return ds
}

func TestFitSingleSampleDatasetReturnsOneLeaf(t *testing.T) {
	ds := singleSampleDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.05),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.InDelta(t, 0.05, result.LowerBound, 1e-9)
	require.InDelta(t, 0.05, result.UpperBound, 1e-9)
	require.Zero(t, result.ModelLoss)
	require.Len(t, result.Models, 1)
	require.True(t, result.Models[0].Terminal)
}

func TestFitConstantLabelReturnsOneLeaf(t *testing.T) {
	ds := constantLabelDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.InDelta(t, 0.01, result.LowerBound, 1e-9)
	require.InDelta(t, 0.01, result.UpperBound, 1e-9)
	require.Zero(t, result.ModelLoss)
	require.Len(t, result.Models, 1)
}

func TestFitXOROnTwoFeaturesReachesFullDepthTree(t *testing.T) {
	ds := xorDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(2),
		gosdt.WithModelLimit(1),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.Zero(t, result.ModelLoss)
	require.InDelta(t, 0.04, result.UpperBound, 1e-9)
	require.Len(t, result.Models, 1)
	require.False(t, result.Models[0].Terminal)
}

func TestFitDepthBudgetOneForcesSingleLeaf(t *testing.T) {
	ds := xorDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
		gosdt.WithDepthBudget(1),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.Len(t, result.Models, 1)
	require.True(t, result.Models[0].Terminal)
}

func TestFitRuleListModeConverges(t *testing.T) {
	ds := xorDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
		gosdt.WithRuleList(true),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.InDelta(t, 0.25, result.ModelLoss, 1e-9)
}

func TestFitCancelledContextReportsTimeout(t *testing.T) {
	ds := constantLabelDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := gosdt.Fit(ctx, cfg, ds, nil, nil)
	require.NoError(t, err)
	require.Equal(t, gosdt.StatusTimeout, result.Status)
}

func TestFitWritesCompressedProfileAndTrace(t *testing.T) {
	ds := constantLabelDataset(t)
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.csv.zst")
	tracePath := filepath.Join(dir, "trace.json.zst")

	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
		gosdt.WithModelLimit(1),
		gosdt.WithProfilePath(profilePath),
		gosdt.WithTracePath(tracePath),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)
	require.Equal(t, gosdt.StatusConverged, result.Status)

	for _, path := range []string{profilePath, tracePath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Positive(t, info.Size())

		f, err := os.Open(path)
		require.NoError(t, err)
		zr, err := zstd.NewReader(f)
		require.NoError(t, err)
		raw, err := io.ReadAll(zr)
		require.NoError(t, err)
		zr.Close()
		f.Close()
		require.NotEmpty(t, raw)
	}

	profileRaw, err := os.Open(profilePath)
	require.NoError(t, err)
	defer profileRaw.Close()
	zr, err := zstd.NewReader(profileRaw)
	require.NoError(t, err)
	defer zr.Close()
	content, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Contains(t, string(content), "ticks,time_elapsed,lower_bound,upper_bound,graph_size,queue_size,explore,exploit")
}

func TestFitModelLimitZeroSkipsExtraction(t *testing.T) {
	ds := constantLabelDataset(t)
	cfg := gosdt.NewConfiguration(
		gosdt.WithRegularization(0.01),
		gosdt.WithWorkerLimit(1),
	)

	result, err := gosdt.Fit(context.Background(), cfg, ds, nil, nil)
	require.NoError(t, err)

	require.Equal(t, gosdt.StatusConverged, result.Status)
	require.Empty(t, result.Models)
	require.Equal(t, "[]", result.Model)
}
