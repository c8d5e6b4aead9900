package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	gosdt "github.com/vishalbelsare/gosdt-guesses"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/ledger"
	"github.com/vishalbelsare/gosdt-guesses/resultstore"
)

func newFitCmd() *cobra.Command {
	var (
		dataPath       string
		costPath       string
		configPath     string
		outPath        string
		numTargets     uint
		lambda         float64
		timeLimit      time.Duration
		workers        uint32
		modelLimit     uint32
		depthBudget    uint8
		diagnostics    bool
		verbose        bool
		checkpointPath string
		publish        publishFlags
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a globally-optimal sparse decision tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			input, err := readBinarizedCSV(dataPath, numTargets)
			if err != nil {
				return fmt.Errorf("read data: %w", err)
			}

			costs, err := loadCostMatrix(costPath, numTargets, len(input))
			if err != nil {
				return fmt.Errorf("load cost matrix: %w", err)
			}

			ds, err := dataset.New(input, costs, nil)
			if err != nil {
				return fmt.Errorf("build dataset: %w", err)
			}

			cfg, err := loadConfiguration(configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			applyFlagOverrides(cmd, &cfg, lambda, timeLimit, workers, modelLimit, depthBudget, diagnostics, verbose, checkpointPath)

			resultStore, err := buildResultStore(ctx, publish)
			if err != nil {
				return fmt.Errorf("build result store: %w", err)
			}
			resultLedger, err := buildLedger(ctx, publish)
			if err != nil {
				return fmt.Errorf("build ledger: %w", err)
			}

			logger := gosdt.NewTextLogger(logLevel(verbose))
			metrics := gosdt.NoopMetricsCollector{}

			startedAt := time.Now()
			result, err := gosdt.Fit(ctx, cfg, ds, logger, metrics)
			if err != nil {
				return fmt.Errorf("fit: %w", err)
			}
			finishedAt := time.Now()

			if resultStore != nil || resultLedger != nil {
				runID := resolveRunID(publish.runID)
				if err := publishResult(ctx, resultStore, resultLedger, runID, result, startedAt, finishedAt); err != nil {
					return fmt.Errorf("publish result: %w", err)
				}
			}

			return writeResult(result, outPath)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to a CSV of binarized feature columns followed by one-hot target columns (required)")
	cmd.Flags().UintVar(&numTargets, "num-targets", 2, "number of one-hot target columns at the end of each data row")
	cmd.Flags().StringVar(&costPath, "cost", "", "path to a JSON cost matrix (defaults to a 0/1 loss normalized by row count)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config.json or config.toml (defaults to gosdt.DefaultConfiguration)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the result JSON here instead of stdout")
	cmd.Flags().Float64Var(&lambda, "lambda", 0, "per-leaf complexity penalty override")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "wall-clock time limit override")
	cmd.Flags().Uint32Var(&workers, "workers", 0, "worker goroutine count override (0 = GOMAXPROCS)")
	cmd.Flags().Uint32Var(&modelLimit, "model-limit", 0, "maximum number of extracted models override")
	cmd.Flags().Uint8Var(&depthBudget, "depth-budget", 0, "tree depth cap override (0 = unlimited)")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "enable non-convergence/false-convergence diagnosis and checkpointing")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable verbose tick logging")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "periodic lz4-compressed graph snapshot path")
	registerPublishFlags(cmd, &publish)

	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// publishResult writes result's model JSON to store (if non-nil) and
// records a status row in led (if non-nil), keyed by runID.
func publishResult(ctx context.Context, store resultstore.Store, led ledger.Ledger, runID string, result gosdt.Result, startedAt, finishedAt time.Time) error {
	if store != nil {
		if err := store.Put(ctx, runID, []byte(result.Model)); err != nil {
			return fmt.Errorf("result store put: %w", err)
		}
	}
	if led != nil {
		rec := ledger.Record{
			RunID:       runID,
			Status:      string(result.Status),
			LowerBound:  result.LowerBound,
			UpperBound:  result.UpperBound,
			GraphSize:   result.GraphSize,
			NIterations: result.NIterations,
			TimeElapsed: result.TimeElapsed,
			StartedAt:   startedAt,
			FinishedAt:  finishedAt,
		}
		if err := led.RecordRun(ctx, rec); err != nil {
			return fmt.Errorf("ledger record run: %w", err)
		}
	}
	return nil
}

func readBinarizedCSV(path string, numTargets uint) ([][]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	input := make([][]bool, 0, len(rows))
	for i, row := range rows {
		if uint(len(row)) <= numTargets {
			return nil, fmt.Errorf("row %d: %d columns, need more than %d target columns", i, len(row), numTargets)
		}
		bits := make([]bool, len(row))
		for j, cell := range row {
			v, err := strconv.ParseBool(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, j, err)
			}
			bits[j] = v
		}
		input = append(input, bits)
	}
	return input, nil
}

func loadCostMatrix(path string, numTargets uint, numRows int) ([][]float64, error) {
	if path == "" {
		return defaultCostMatrix(numTargets, numRows), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var costs [][]float64
	if err := json.Unmarshal(raw, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// defaultCostMatrix builds a 0/1 misclassification-cost matrix normalized
// by row count, the convention internal/task's [0,1] thresholds assume.
func defaultCostMatrix(numTargets uint, numRows int) [][]float64 {
	n := int(numTargets)
	costs := make([][]float64, n)
	perRow := 1.0
	if numRows > 0 {
		perRow = 1.0 / float64(numRows)
	}
	for i := range costs {
		costs[i] = make([]float64, n)
		for j := range costs[i] {
			if i != j {
				costs[i][j] = perRow
			}
		}
	}
	return costs
}

func loadConfiguration(path string) (gosdt.Configuration, error) {
	if path == "" {
		return gosdt.DefaultConfiguration(), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return gosdt.LoadConfigTOML(path)
	}
	return gosdt.LoadConfigJSON(path)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *gosdt.Configuration, lambda float64, timeLimit time.Duration, workers, modelLimit uint32, depthBudget uint8, diagnostics, verbose bool, checkpointPath string) {
	flags := cmd.Flags()
	if flags.Changed("lambda") {
		cfg.Regularization = lambda
	}
	if flags.Changed("time-limit") {
		cfg.TimeLimitSeconds = uint32(timeLimit / time.Second)
	}
	if flags.Changed("workers") {
		cfg.WorkerLimit = workers
	}
	if flags.Changed("model-limit") {
		cfg.ModelLimit = modelLimit
	}
	if flags.Changed("depth-budget") {
		cfg.DepthBudget = depthBudget
	}
	if flags.Changed("diagnostics") {
		cfg.Diagnostics = diagnostics
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("checkpoint") {
		cfg.CheckpointPath = checkpointPath
	}
}

func writeResult(result gosdt.Result, outPath string) error {
	if outPath == "" {
		fmt.Println("Model:", result.Model)
		fmt.Println("Graph Size:", result.GraphSize)
		fmt.Println("Number of Iterations:", result.NIterations)
		fmt.Println("Lower Bound:", result.LowerBound)
		fmt.Println("Upper Bound:", result.UpperBound)
		fmt.Println("Model Loss:", result.ModelLoss)
		fmt.Println("Time Elapsed:", result.TimeElapsed)
		fmt.Println("Status:", result.Status)
		return nil
	}

	raw, err := json.MarshalIndent(struct {
		Model       string        `json:"model"`
		GraphSize   int           `json:"graph_size"`
		NIterations uint64        `json:"n_iterations"`
		LowerBound  float64       `json:"lower_bound"`
		UpperBound  float64       `json:"upper_bound"`
		ModelLoss   float64       `json:"model_loss"`
		TimeElapsed time.Duration `json:"time_elapsed"`
		Status      gosdt.Status  `json:"status"`
	}{
		Model:       result.Model,
		GraphSize:   result.GraphSize,
		NIterations: result.NIterations,
		LowerBound:  result.LowerBound,
		UpperBound:  result.UpperBound,
		ModelLoss:   result.ModelLoss,
		TimeElapsed: result.TimeElapsed,
		Status:      result.Status,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, raw, 0o644)
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
