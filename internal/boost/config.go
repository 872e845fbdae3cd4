// Package boost implements gradient-boosted regression trees with
// selectable tree construction methods and compute backends.
//
// A Regressor moves through three states: unconfigured (zero value),
// configured (built by NewRegressor) and fitted (after Fit). Predict is
// only valid on a fitted model. The two compute targets share the exact
// same split-search code; the parallel device fans the per-feature scan
// out over a worker pool while the CPU target runs it sequentially, so
// both produce identical trees.
package boost

import (
	"fmt"

	"github.com/treeline-data/treeline/internal/errs"
)

// Device selects the compute backend used during tree construction.
type Device string

const (
	// DeviceCPU runs the split search sequentially on the calling goroutine.
	DeviceCPU Device = "cpu"
	// DeviceParallel fans the split search out over a worker pool.
	DeviceParallel Device = "parallel"
)

// TreeMethod selects the split-candidate enumeration strategy.
type TreeMethod string

const (
	// MethodExact scans every distinct value boundary of each feature.
	MethodExact TreeMethod = "exact"
	// MethodHist buckets feature values into fixed-width histogram bins
	// and only considers bin edges as candidate thresholds.
	MethodHist TreeMethod = "hist"
)

// State tracks the model lifecycle.
type State int

const (
	// StateUnconfigured is the zero value; such a model cannot be used.
	StateUnconfigured State = iota
	// StateConfigured means hyperparameters are validated and fixed.
	StateConfigured
	// StateFitted means the model holds a trained ensemble.
	StateFitted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateFitted:
		return "fitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Default hyperparameter values.
const (
	DefaultRounds         = 50
	DefaultLearningRate   = 0.3
	DefaultMaxDepth       = 6
	DefaultMinSamplesLeaf = 1
	DefaultHistBins       = 64
)

// Config fixes one trainable model instance. It is immutable once passed
// to NewRegressor.
type Config struct {
	InputColumns   []string   // numeric feature columns
	LabelColumn    string     // regression target
	OutputColumn   string     // name of the appended prediction column
	Device         Device     // compute backend (validated at Fit)
	TreeMethod     TreeMethod // split enumeration strategy
	Rounds         int        // number of boosting rounds (trees)
	LearningRate   float64    // shrinkage applied to each tree
	MaxDepth       int        // maximum tree depth
	MinSamplesLeaf int        // minimum rows per leaf
	HistBins       int        // histogram bin count for MethodHist
	PoolSize       int        // worker count for DeviceParallel (0 = CPU count)
}

// withDefaults fills zero values with defaults.
func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = DeviceCPU
	}
	if c.TreeMethod == "" {
		c.TreeMethod = MethodHist
	}
	if c.Rounds == 0 {
		c.Rounds = DefaultRounds
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MinSamplesLeaf == 0 {
		c.MinSamplesLeaf = DefaultMinSamplesLeaf
	}
	if c.HistBins == 0 {
		c.HistBins = DefaultHistBins
	}
	return c
}

// validate checks structural configuration. Device availability is checked
// at Fit so that resource problems surface as training failures.
func (c Config) validate() error {
	if len(c.InputColumns) == 0 {
		return errs.NewInvalidInputError("NewRegressor", "at least one input column is required")
	}
	if c.LabelColumn == "" {
		return errs.NewInvalidInputError("NewRegressor", "label column is required")
	}
	if c.OutputColumn == "" {
		return errs.NewInvalidInputError("NewRegressor", "output column is required")
	}
	for _, col := range c.InputColumns {
		if col == c.OutputColumn {
			return errs.NewInvalidInputError("NewRegressor",
				fmt.Sprintf("output column %q conflicts with an input column", col))
		}
	}
	if c.Rounds < 1 {
		return errs.NewInvalidInputError("NewRegressor", fmt.Sprintf("rounds must be positive, got %d", c.Rounds))
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return errs.NewInvalidInputError("NewRegressor",
			fmt.Sprintf("learning rate must be in (0, 1], got %g", c.LearningRate))
	}
	if c.MaxDepth < 1 {
		return errs.NewInvalidInputError("NewRegressor", fmt.Sprintf("max depth must be positive, got %d", c.MaxDepth))
	}
	if c.MinSamplesLeaf < 1 {
		return errs.NewInvalidInputError("NewRegressor",
			fmt.Sprintf("min samples per leaf must be positive, got %d", c.MinSamplesLeaf))
	}
	if c.TreeMethod != MethodExact && c.TreeMethod != MethodHist {
		return errs.NewInvalidInputError("NewRegressor", fmt.Sprintf("unknown tree method %q", c.TreeMethod))
	}
	if c.HistBins < 2 {
		return errs.NewInvalidInputError("NewRegressor", fmt.Sprintf("histogram bins must be at least 2, got %d", c.HistBins))
	}
	return nil
}
