package boost

import (
	"context"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/parallel"
	"github.com/treeline-data/treeline/internal/series"
)

// Regressor is a gradient-boosted-tree regression model. The zero value is
// unconfigured and unusable; build instances with NewRegressor.
type Regressor struct {
	cfg   Config
	state State

	base  float64
	trees []*treeNode
}

// NewRegressor validates the configuration and returns a configured model.
func NewRegressor(cfg Config) (*Regressor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Regressor{cfg: cfg, state: StateConfigured}, nil
}

// Config returns the model configuration.
func (r *Regressor) Config() Config {
	return r.cfg
}

// State returns the current lifecycle state.
func (r *Regressor) State() State {
	return r.state
}

// Fit trains the ensemble on the given frame. The frame must contain every
// configured input column and the label column with numeric types. An
// unknown compute device fails here, not at construction, and no fallback
// device is attempted.
func (r *Regressor) Fit(ctx context.Context, f *frame.Frame) error {
	if r.state == StateUnconfigured {
		return errs.NewInvalidInputError("Fit", "model is unconfigured")
	}

	scan, cleanup, err := r.newScanner()
	if err != nil {
		return err
	}
	defer cleanup()

	features, err := featureMatrix(f, r.cfg.InputColumns)
	if err != nil {
		return err
	}
	target, _, err := f.FloatValues(r.cfg.LabelColumn)
	if err != nil {
		return err
	}
	n := len(target)
	if n == 0 {
		return errs.ErrEmptyFrame
	}

	base := 0.0
	for _, y := range target {
		base += y
	}
	base /= float64(n)

	preds := make([]float64, n)
	for i := range preds {
		preds[i] = base
	}
	residual := make([]float64, n)
	allRows := make([]int, n)
	for i := range allRows {
		allRows[i] = i
	}

	builder := &treeBuilder{
		features: features,
		target:   residual,
		method:   r.cfg.TreeMethod,
		bins:     r.cfg.HistBins,
		maxDepth: r.cfg.MaxDepth,
		minLeaf:  r.cfg.MinSamplesLeaf,
		scan:     scan,
	}

	trees := make([]*treeNode, 0, r.cfg.Rounds)
	for round := 0; round < r.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return errs.NewInternalError("Fit", err)
		}

		for i := range residual {
			residual[i] = target[i] - preds[i]
		}

		tree := builder.build(allRows, 0)
		trees = append(trees, tree)

		for i := range preds {
			preds[i] += r.cfg.LearningRate * tree.predict(features, i)
		}
	}

	r.base = base
	r.trees = trees
	r.state = StateFitted
	return nil
}

// Predict scores the frame and returns a new frame with the configured
// output column appended. The input must be schema-compatible with the
// training data: every input column present and numeric.
func (r *Regressor) Predict(f *frame.Frame) (*frame.Frame, error) {
	if r.state != StateFitted {
		return nil, errs.ErrNotFitted
	}

	features, err := featureMatrix(f, r.cfg.InputColumns)
	if err != nil {
		return nil, err
	}

	n := f.Len()
	preds := make([]float64, n)
	for i := 0; i < n; i++ {
		yhat := r.base
		for _, tree := range r.trees {
			yhat += r.cfg.LearningRate * tree.predict(features, i)
		}
		preds[i] = yhat
	}

	mem := memory.NewGoAllocator()
	return f.WithColumn(r.cfg.OutputColumn, series.New(r.cfg.OutputColumn, preds, mem))
}

// newScanner resolves the compute device into a feature scan strategy.
func (r *Regressor) newScanner() (featureScanner, func(), error) {
	switch r.cfg.Device {
	case DeviceCPU:
		scan := func(numFeatures int, eval func(int) splitCandidate) []splitCandidate {
			out := make([]splitCandidate, numFeatures)
			for f := 0; f < numFeatures; f++ {
				out[f] = eval(f)
			}
			return out
		}
		return scan, func() {}, nil
	case DeviceParallel:
		pool := parallel.NewWorkerPool(r.cfg.PoolSize)
		scan := func(numFeatures int, eval func(int) splitCandidate) []splitCandidate {
			features := make([]int, numFeatures)
			for f := range features {
				features[f] = f
			}
			return parallel.ProcessIndexed(pool, features, func(_ int, f int) splitCandidate {
				return eval(f)
			})
		}
		return scan, pool.Close, nil
	default:
		return nil, nil, errs.NewInvalidInputError("Fit",
			fmt.Sprintf("unknown compute device %q", r.cfg.Device))
	}
}

// featureMatrix extracts the input columns as a feature-major matrix,
// mapping missing values to NaN.
func featureMatrix(f *frame.Frame, columns []string) ([][]float64, error) {
	matrix := make([][]float64, len(columns))
	for ci, col := range columns {
		values, valid, err := f.FloatValues(col)
		if err != nil {
			return nil, err
		}
		for i := range values {
			if !valid[i] {
				values[i] = math.NaN()
			}
		}
		matrix[ci] = values
	}
	return matrix, nil
}
