// Package treeline provides a warehouse-backed tabular pipeline for
// benchmarking gradient-boosted-tree training across compute backends.
// This package is the sole public API for the library.
package treeline

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline/internal/boost"
	"github.com/treeline-data/treeline/internal/config"
	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/metrics"
	"github.com/treeline-data/treeline/internal/pipeline"
	"github.com/treeline-data/treeline/internal/prep"
	"github.com/treeline-data/treeline/internal/series"
	"github.com/treeline-data/treeline/internal/warehouse"
)

// ISeries provides a type-erased interface for Series of any type.
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	NullCount() int
	String() string
	Array() arrow.Array
	Release()
}

// Frame is the public type for an in-memory table. It wraps the internal
// frame.Frame to hide implementation details.
type Frame struct {
	f *frame.Frame
}

// Warehouse is the public handle to an embedded table store.
type Warehouse struct {
	store *warehouse.Store
	sess  *warehouse.Session
}

// Scan is the public type for a lazy table read with pending operations.
type Scan struct {
	sc *warehouse.Scan
}

// TableRef identifies a table by schema and name.
type TableRef = warehouse.TableRef

// Config configures one pipeline run.
type Config = config.Config

// Result summarizes one pipeline run.
type Result = pipeline.Result

// ModelScore holds the accuracy of one trained backend.
type ModelScore = pipeline.ModelScore

// Regressor is the public gradient-boosted-tree regression model.
type Regressor struct {
	r *boost.Regressor
}

// RegressorConfig configures a Regressor.
type RegressorConfig = boost.Config

// Compute backends for Regressor training.
const (
	DeviceCPU      = boost.DeviceCPU
	DeviceParallel = boost.DeviceParallel
)

// Tree construction methods for Regressor training.
const (
	MethodExact = boost.MethodExact
	MethodHist  = boost.MethodHist
)

// Sentinel values used by the preparation stages.
const (
	MissingString   = prep.MissingString
	InfrequentValue = prep.InfrequentValue
)

// ParseRef parses "schema.table" into a TableRef.
func ParseRef(qualified string) TableRef {
	return warehouse.ParseRef(qualified)
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewSeriesWithValidity creates a new typed Series with an explicit
// validity mask; rows where valid is false become nulls.
func NewSeriesWithValidity[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewWithValidity(name, values, valid, mem)
}

// NewFrame creates a new Frame from ISeries.
func NewFrame(columns ...ISeries) *Frame {
	internal := make([]frame.ISeries, len(columns))
	for i, col := range columns {
		internal[i] = col
	}
	return &Frame{f: frame.New(internal...)}
}

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return config.NewConfig()
}

// LoadConfig loads configuration from a JSON or YAML file.
func LoadConfig(filename string) (Config, error) {
	return config.LoadFromFile(filename)
}

// LoadConfigFromEnv loads configuration from TREELINE_* environment
// variables on top of the defaults.
func LoadConfigFromEnv() Config {
	return config.LoadFromEnv()
}

// Frame methods

// Columns returns the column names in order.
func (fr *Frame) Columns() []string {
	return fr.f.Columns()
}

// Len returns the number of rows.
func (fr *Frame) Len() int {
	return fr.f.Len()
}

// Width returns the number of columns.
func (fr *Frame) Width() int {
	return fr.f.Width()
}

// Column returns the column with the given name.
func (fr *Frame) Column(name string) (ISeries, bool) {
	return fr.f.Column(name)
}

// HasColumn reports whether a column with the given name exists.
func (fr *Frame) HasColumn(name string) bool {
	return fr.f.HasColumn(name)
}

// Select returns a new Frame with only the specified columns.
func (fr *Frame) Select(names ...string) *Frame {
	return &Frame{f: fr.f.Select(names...)}
}

// Drop returns a new Frame without the specified columns.
func (fr *Frame) Drop(names ...string) *Frame {
	return &Frame{f: fr.f.Drop(names...)}
}

// SortColumns returns a new Frame with columns ordered lexicographically.
func (fr *Frame) SortColumns() *Frame {
	return &Frame{f: fr.f.SortColumns()}
}

// String returns a compact textual description of the frame.
func (fr *Frame) String() string {
	return fr.f.String()
}

// Release releases the underlying Arrow memory.
func (fr *Frame) Release() {
	fr.f.Release()
}

// Warehouse methods

// OpenWarehouse opens (creating if needed) the table store at path.
func OpenWarehouse(path string) (*Warehouse, error) {
	store, err := warehouse.Open(path)
	if err != nil {
		return nil, err
	}
	return &Warehouse{store: store, sess: warehouse.NewSession(store)}, nil
}

// Close closes the underlying store.
func (w *Warehouse) Close() error {
	return w.store.Close()
}

// Save writes a frame to the warehouse under ref, replacing any existing
// table with the same name.
func (w *Warehouse) Save(ref TableRef, fr *Frame) error {
	return w.sess.Save(ref, fr.f)
}

// Table starts a lazy scan of the named table.
func (w *Warehouse) Table(ref TableRef) *Scan {
	return &Scan{sc: w.sess.Table(ref)}
}

// HasTable reports whether the named table exists.
func (w *Warehouse) HasTable(ref TableRef) bool {
	return w.store.HasTable(ref)
}

// ListTables returns the qualified names of all stored tables.
func (w *Warehouse) ListTables() ([]string, error) {
	return w.store.ListTables()
}

// DropTable removes the named table.
func (w *Warehouse) DropTable(ref TableRef) error {
	return w.store.DropTable(ref)
}

// RunPipeline executes the full benchmark pipeline against this
// warehouse. A nil logger falls back to slog.Default.
func (w *Warehouse) RunPipeline(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	runner, err := pipeline.NewRunner(w.sess, cfg, logger)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}

// Scan methods

// FilterLess keeps rows where column is strictly less than threshold.
func (s *Scan) FilterLess(column string, threshold float64) *Scan {
	return &Scan{sc: s.sc.FilterLess(column, threshold)}
}

// Drop removes the named columns.
func (s *Scan) Drop(columns ...string) *Scan {
	return &Scan{sc: s.sc.Drop(columns...)}
}

// Select keeps only the named columns.
func (s *Scan) Select(columns ...string) *Scan {
	return &Scan{sc: s.sc.Select(columns...)}
}

// FillMissing replaces nulls: string columns get stringFill, numeric
// columns get zero.
func (s *Scan) FillMissing(stringFill string) *Scan {
	return &Scan{sc: s.sc.FillMissing(stringFill)}
}

// Rename renames a column.
func (s *Scan) Rename(oldName, newName string) *Scan {
	return &Scan{sc: s.sc.Rename(oldName, newName)}
}

// Union appends the rows of another scan with an identical schema.
func (s *Scan) Union(other *Scan) *Scan {
	return &Scan{sc: s.sc.Union(other.sc)}
}

// Collect loads the table and applies the pending operations.
func (s *Scan) Collect() (*Frame, error) {
	f, err := s.sc.Collect()
	if err != nil {
		return nil, err
	}
	return &Frame{f: f}, nil
}

// SaveAsTable collects the scan and stores the result under ref.
func (s *Scan) SaveAsTable(ref TableRef) error {
	return s.sc.SaveAsTable(ref)
}

// String describes the scan and its pending operations.
func (s *Scan) String() string {
	return s.sc.String()
}

// Preparation functions

// ReduceCardinality keeps the topK most frequent values of a string
// column and replaces the rest with sentinel.
func ReduceCardinality(fr *Frame, column string, topK int, sentinel string) (*Frame, error) {
	out, err := prep.ReduceCardinality(fr.f, column, topK, sentinel)
	if err != nil {
		return nil, err
	}
	return &Frame{f: out}, nil
}

// Amplify self-concatenates the frame rounds times, multiplying row count
// by 2^rounds.
func Amplify(fr *Frame, rounds int) (*Frame, error) {
	out, err := prep.Amplify(fr.f, rounds)
	if err != nil {
		return nil, err
	}
	return &Frame{f: out}, nil
}

// OneHotEncode replaces every string column with one float64 indicator
// column per distinct value, then sorts columns lexicographically.
func OneHotEncode(fr *Frame) (*Frame, error) {
	out, err := prep.OneHotEncode(fr.f)
	if err != nil {
		return nil, err
	}
	return &Frame{f: out}, nil
}

// Split partitions rows into two frames by weight using a deterministic
// per-row hash of the seed.
func Split(fr *Frame, firstWeight, secondWeight float64, seed uint64) (*Frame, *Frame, error) {
	first, second, err := prep.Split(fr.f, firstWeight, secondWeight, seed)
	if err != nil {
		return nil, nil, err
	}
	return &Frame{f: first}, &Frame{f: second}, nil
}

// Model functions

// NewRegressor validates the configuration and returns a configured model.
func NewRegressor(cfg RegressorConfig) (*Regressor, error) {
	r, err := boost.NewRegressor(cfg)
	if err != nil {
		return nil, err
	}
	return &Regressor{r: r}, nil
}

// Fit trains the ensemble on the given frame.
func (m *Regressor) Fit(ctx context.Context, fr *Frame) error {
	return m.r.Fit(ctx, fr.f)
}

// Predict scores the frame and returns a new frame with the configured
// output column appended.
func (m *Regressor) Predict(fr *Frame) (*Frame, error) {
	out, err := m.r.Predict(fr.f)
	if err != nil {
		return nil, err
	}
	return &Frame{f: out}, nil
}

// Metric functions

// RMSE returns the root-mean-squared-error between two numeric columns.
func RMSE(fr *Frame, actualColumn, predictedColumn string) (float64, error) {
	return metrics.RMSE(fr.f, actualColumn, predictedColumn)
}

// R2 returns the coefficient of determination between two numeric columns.
func R2(fr *Frame, actualColumn, predictedColumn string) (float64, error) {
	return metrics.R2(fr.f, actualColumn, predictedColumn)
}
