// Package pipeline orchestrates the end-to-end training benchmark: load,
// clean, reduce, amplify, encode, split, train on both compute backends,
// score, and plot.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/treeline-data/treeline/internal/bench"
	"github.com/treeline-data/treeline/internal/boost"
	"github.com/treeline-data/treeline/internal/config"
	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/metrics"
	"github.com/treeline-data/treeline/internal/prep"
	"github.com/treeline-data/treeline/internal/viz"
	"github.com/treeline-data/treeline/internal/warehouse"
)

// Timing names recorded in the comparison report.
const (
	TimingFitCPU          = "fit/cpu"
	TimingFitParallel     = "fit/parallel"
	TimingPredictCPU      = "predict/cpu"
	TimingPredictParallel = "predict/parallel"
)

// Column names produced by the scoring stage.
const (
	PredictedCPUColumn      = "predicted_cpu"
	PredictedParallelColumn = "predicted_parallel"
)

// derivedTableSuffix names the reduced table written back to the warehouse
// between the preparation and amplification stages.
const derivedTableSuffix = "_prepared"

// ModelScore holds the accuracy of one trained backend on the test split.
type ModelScore struct {
	Device boost.Device `json:"device"`
	R2     float64      `json:"r2"`
	RMSE   float64      `json:"rmse"`
}

// Result summarizes one pipeline run.
type Result struct {
	TrainRows int `json:"train_rows"`
	TestRows  int `json:"test_rows"`
	Features  int `json:"features"`

	CPU      ModelScore `json:"cpu"`
	Parallel ModelScore `json:"parallel"`

	Comparison *bench.Comparison `json:"-"`
	PlotPath   string            `json:"plot_path,omitempty"`
}

// Runner executes the pipeline against a warehouse session.
type Runner struct {
	sess   *warehouse.Session
	cfg    config.Config
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default.
func NewRunner(sess *warehouse.Session, cfg config.Config, logger *slog.Logger) (*Runner, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errs.NewInvalidInputError("NewRunner", err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{sess: sess, cfg: cfg, logger: logger}, nil
}

// Run executes every stage and returns the scores and timings.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	train, test, err := r.prepare()
	if err != nil {
		return nil, err
	}

	inputs := inputColumns(train, r.cfg.PriceColumn)
	r.logger.Info("data prepared",
		slog.Int("train_rows", train.Len()),
		slog.Int("test_rows", test.Len()),
		slog.Int("features", len(inputs)))

	result := &Result{
		TrainRows:  train.Len(),
		TestRows:   test.Len(),
		Features:   len(inputs),
		Comparison: bench.NewComparison(),
	}

	scored, err := r.trainAndScore(ctx, train, test, inputs, result)
	if err != nil {
		return nil, err
	}

	if r.cfg.PlotPath != "" {
		if err := viz.ScatterPlot(scored, r.cfg.PriceColumn, PredictedParallelColumn, r.cfg.PlotPath); err != nil {
			return nil, err
		}
		result.PlotPath = r.cfg.PlotPath
		r.logger.Info("scatter plot written", slog.String("path", r.cfg.PlotPath))
	}

	return result, nil
}

// prepare runs the data stages: clean the source table, collapse the
// long-tail category column, round-trip the reduced table through the
// warehouse, amplify volume, one-hot encode, and split.
func (r *Runner) prepare() (*frame.Frame, *frame.Frame, error) {
	source := warehouse.ParseRef(r.cfg.SourceTable)

	scan := prep.Clean(r.sess.Table(source), prep.CleanSpec{
		PriceColumn: r.cfg.PriceColumn,
		PriceCap:    r.cfg.PriceCap,
		DropColumns: r.cfg.DropColumns,
		StringFill:  prep.MissingString,
	})
	cleaned, err := scan.Collect()
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("cleaned", slog.Int("rows", cleaned.Len()), slog.Int("columns", cleaned.Width()))

	reduced, err := prep.ReduceCardinality(cleaned, r.cfg.CategoryColumn, r.cfg.MaxCategories, prep.InfrequentValue)
	if err != nil {
		return nil, nil, err
	}

	// Persist the prepared table and continue from the stored copy, so
	// downstream stages read exactly what the warehouse holds.
	derived := source.WithSuffix(derivedTableSuffix)
	if err := r.sess.Save(derived, reduced); err != nil {
		return nil, nil, err
	}
	stored, err := r.sess.Table(derived).Collect()
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("prepared table stored", slog.String("table", derived.String()))

	amplified, err := prep.Amplify(stored, r.cfg.AmplifyRounds)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("amplified", slog.Int("rows", amplified.Len()))

	encoded, err := prep.OneHotEncode(amplified)
	if err != nil {
		return nil, nil, err
	}

	return prep.Split(encoded, r.cfg.TrainWeight, r.cfg.TestWeight, r.cfg.SplitSeed)
}

// trainAndScore trains one model per compute backend, timing each fit with
// a memory release in between, then scores both on the test split. The
// returned frame carries both prediction columns.
func (r *Runner) trainAndScore(ctx context.Context, train, test *frame.Frame, inputs []string, result *Result) (*frame.Frame, error) {
	cpuModel, err := r.newRegressor(boost.DeviceCPU, inputs, PredictedCPUColumn)
	if err != nil {
		return nil, err
	}
	parallelModel, err := r.newRegressor(boost.DeviceParallel, inputs, PredictedParallelColumn)
	if err != nil {
		return nil, err
	}

	timing, err := bench.Measure(TimingFitCPU, func() error {
		return cpuModel.Fit(ctx, train)
	})
	result.Comparison.Add(timing)
	if err != nil {
		return nil, err
	}
	r.logger.Info("trained", slog.String("device", string(boost.DeviceCPU)), slog.Duration("took", timing.Duration))

	// Free the first run's allocations so the second backend is timed
	// from a clean slate.
	bench.ReleaseMemory()

	timing, err = bench.Measure(TimingFitParallel, func() error {
		return parallelModel.Fit(ctx, train)
	})
	result.Comparison.Add(timing)
	if err != nil {
		return nil, err
	}
	r.logger.Info("trained", slog.String("device", string(boost.DeviceParallel)), slog.Duration("took", timing.Duration))

	var scored *frame.Frame
	timing, err = bench.Measure(TimingPredictCPU, func() error {
		scored, err = cpuModel.Predict(test)
		return err
	})
	result.Comparison.Add(timing)
	if err != nil {
		return nil, err
	}

	timing, err = bench.Measure(TimingPredictParallel, func() error {
		scored, err = parallelModel.Predict(scored)
		return err
	})
	result.Comparison.Add(timing)
	if err != nil {
		return nil, err
	}

	if result.CPU, err = r.score(scored, boost.DeviceCPU, PredictedCPUColumn); err != nil {
		return nil, err
	}
	if result.Parallel, err = r.score(scored, boost.DeviceParallel, PredictedParallelColumn); err != nil {
		return nil, err
	}

	return scored, nil
}

func (r *Runner) newRegressor(device boost.Device, inputs []string, outputColumn string) (*boost.Regressor, error) {
	return boost.NewRegressor(boost.Config{
		InputColumns: inputs,
		LabelColumn:  r.cfg.PriceColumn,
		OutputColumn: outputColumn,
		Device:       device,
		TreeMethod:   boost.MethodHist,
		Rounds:       r.cfg.Rounds,
		LearningRate: r.cfg.LearningRate,
		MaxDepth:     r.cfg.MaxDepth,
		HistBins:     r.cfg.HistBins,
		PoolSize:     r.cfg.PoolSize,
	})
}

func (r *Runner) score(f *frame.Frame, device boost.Device, predictedColumn string) (ModelScore, error) {
	r2, err := metrics.R2(f, r.cfg.PriceColumn, predictedColumn)
	if err != nil {
		return ModelScore{}, err
	}
	rmse, err := metrics.RMSE(f, r.cfg.PriceColumn, predictedColumn)
	if err != nil {
		return ModelScore{}, err
	}
	r.logger.Info("scored",
		slog.String("device", string(device)),
		slog.Float64("r2", r2),
		slog.Float64("rmse", rmse))
	return ModelScore{Device: device, R2: r2, RMSE: rmse}, nil
}

// inputColumns returns every numeric column except the label, in frame
// order. After encoding this is the full feature set.
func inputColumns(f *frame.Frame, labelColumn string) []string {
	numeric := f.NumericColumnNames()
	inputs := make([]string, 0, len(numeric))
	for _, name := range numeric {
		if name != labelColumn {
			inputs = append(inputs, name)
		}
	}
	return inputs
}
