// Package frame provides an immutable columnar table built on Arrow series.
//
// A Frame is the materialized form of a warehouse scan. Every operation
// returns a new Frame; the receiver is never mutated. Supported column types
// are string, int64, float64 and bool, matching the warehouse storage model.
package frame

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/series"
)

// ISeries is the type-erased column interface used by Frame.
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

// Frame represents a table of data with typed columns
type Frame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new Frame from a slice of ISeries
func New(cols ...ISeries) *Frame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &Frame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (f *Frame) Columns() []string {
	if len(f.order) == 0 {
		return []string{}
	}
	return append([]string(nil), f.order...)
}

// Len returns the number of rows (all columns share the same length)
func (f *Frame) Len() int {
	if len(f.order) == 0 {
		return 0
	}
	if s, exists := f.columns[f.order[0]]; exists {
		return s.Len()
	}
	return 0
}

// Width returns the number of columns
func (f *Frame) Width() int {
	return len(f.columns)
}

// Column returns the series for the given column name
func (f *Frame) Column(name string) (ISeries, bool) {
	s, exists := f.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (f *Frame) HasColumn(name string) bool {
	_, exists := f.columns[name]
	return exists
}

// Select returns a new Frame with only the specified columns
func (f *Frame) Select(names ...string) *Frame {
	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if s, exists := f.columns[name]; exists {
			newColumns[name] = s
			newOrder = append(newOrder, name)
		}
	}

	return &Frame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Drop returns a new Frame without the specified columns
func (f *Frame) Drop(names ...string) *Frame {
	dropSet := make(map[string]bool)
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(f.order))

	for _, name := range f.order {
		if !dropSet[name] {
			newColumns[name] = f.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &Frame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Rename returns a new Frame with column old renamed to new.
func (f *Frame) Rename(oldName, newName string) (*Frame, error) {
	if !f.HasColumn(oldName) {
		return nil, errs.NewColumnNotFoundError("Rename", oldName)
	}
	if oldName != newName && f.HasColumn(newName) {
		return nil, errs.NewInvalidInputError("Rename", fmt.Sprintf("column %q already exists", newName))
	}

	newColumns := make(map[string]ISeries, len(f.columns))
	newOrder := make([]string, len(f.order))

	for i, name := range f.order {
		s := f.columns[name]
		if name == oldName {
			s = renameSeries(s, newName)
			name = newName
		}
		newColumns[name] = s
		newOrder[i] = name
	}

	return &Frame{columns: newColumns, order: newOrder}, nil
}

// WithColumn returns a new Frame with the named column replaced in place,
// or appended if no column with that name exists.
func (f *Frame) WithColumn(name string, col ISeries) (*Frame, error) {
	if f.Width() > 0 && col.Len() != f.Len() {
		return nil, errs.ErrMismatchedLength
	}

	newColumns := make(map[string]ISeries, len(f.columns)+1)
	newOrder := make([]string, 0, len(f.order)+1)

	replaced := false
	for _, existing := range f.order {
		if existing == name {
			newColumns[name] = col
			replaced = true
		} else {
			newColumns[existing] = f.columns[existing]
		}
		newOrder = append(newOrder, existing)
	}
	if !replaced {
		newColumns[name] = col
		newOrder = append(newOrder, name)
	}

	return &Frame{columns: newColumns, order: newOrder}, nil
}

// SortColumns returns a new Frame with columns reordered lexicographically.
// The data itself is shared; only the column order changes.
func (f *Frame) SortColumns() *Frame {
	newOrder := append([]string(nil), f.order...)
	sort.Strings(newOrder)

	newColumns := make(map[string]ISeries, len(f.columns))
	for name, s := range f.columns {
		newColumns[name] = s
	}

	return &Frame{columns: newColumns, order: newOrder}
}

// StringColumnNames returns the names of all utf8-typed columns in order.
// This is the schema inspection used to pick fill sentinels and encoder
// targets.
func (f *Frame) StringColumnNames() []string {
	var names []string
	for _, name := range f.order {
		if f.columns[name].DataType().ID() == arrow.STRING {
			names = append(names, name)
		}
	}
	return names
}

// NumericColumnNames returns the names of all int64 and float64 columns in order.
func (f *Frame) NumericColumnNames() []string {
	var names []string
	for _, name := range f.order {
		switch f.columns[name].DataType().ID() {
		case arrow.INT64, arrow.FLOAT64:
			names = append(names, name)
		}
	}
	return names
}

// String returns a string representation of the Frame
func (f *Frame) String() string {
	if len(f.columns) == 0 {
		return "Frame[empty]"
	}

	parts := []string{fmt.Sprintf("Frame[%dx%d]", f.Len(), f.Width())}
	for _, name := range f.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, f.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (f *Frame) Release() {
	for _, s := range f.columns {
		s.Release()
	}
}

// FilterLess returns a new Frame keeping only rows where the named numeric
// column is present and strictly less than threshold. Null rows never pass
// the predicate.
func (f *Frame) FilterLess(column string, threshold float64) (*Frame, error) {
	s, exists := f.columns[column]
	if !exists {
		return nil, errs.NewColumnNotFoundError("FilterLess", column)
	}

	arr := s.Array()
	defer arr.Release()

	indices := make([]int, 0, s.Len())
	switch typedArr := arr.(type) {
	case *array.Float64:
		for i := 0; i < typedArr.Len(); i++ {
			if !typedArr.IsNull(i) && typedArr.Value(i) < threshold {
				indices = append(indices, i)
			}
		}
	case *array.Int64:
		for i := 0; i < typedArr.Len(); i++ {
			if !typedArr.IsNull(i) && float64(typedArr.Value(i)) < threshold {
				indices = append(indices, i)
			}
		}
	default:
		return nil, errs.NewUnsupportedTypeError("FilterLess", column, s.DataType().String())
	}

	return f.Take(indices), nil
}

// Take returns a new Frame containing the rows at the given indices, in
// order. Indices may repeat; out-of-range indices are skipped.
func (f *Frame) Take(indices []int) *Frame {
	length := f.Len()
	bounded := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < length {
			bounded = append(bounded, idx)
		}
	}

	mem := memory.NewGoAllocator()
	taken := make([]ISeries, 0, len(f.order))
	for _, name := range f.order {
		taken = append(taken, takeSeries(f.columns[name], bounded, mem))
	}
	return New(taken...)
}

// FillMissing returns a new Frame with every null replaced by a
// type-specific default: stringFill for string columns, 0 for numeric
// columns and false for boolean columns.
func (f *Frame) FillMissing(stringFill string) *Frame {
	mem := memory.NewGoAllocator()
	filled := make([]ISeries, 0, len(f.order))

	for _, name := range f.order {
		s := f.columns[name]
		if s.NullCount() == 0 {
			filled = append(filled, copySeries(s, mem))
			continue
		}

		arr := s.Array()
		switch typedArr := arr.(type) {
		case *array.String:
			values := make([]string, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if typedArr.IsNull(i) {
					values[i] = stringFill
				} else {
					values[i] = typedArr.Value(i)
				}
			}
			filled = append(filled, series.New(name, values, mem))
		case *array.Int64:
			values := make([]int64, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if !typedArr.IsNull(i) {
					values[i] = typedArr.Value(i)
				}
			}
			filled = append(filled, series.New(name, values, mem))
		case *array.Float64:
			values := make([]float64, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if !typedArr.IsNull(i) {
					values[i] = typedArr.Value(i)
				}
			}
			filled = append(filled, series.New(name, values, mem))
		case *array.Boolean:
			values := make([]bool, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if !typedArr.IsNull(i) {
					values[i] = typedArr.Value(i)
				}
			}
			filled = append(filled, series.New(name, values, mem))
		}
		arr.Release()
	}

	return New(filled...)
}

// Concat concatenates this Frame with others vertically (row-wise).
// All frames must have the same column names, order and types.
func (f *Frame) Concat(others ...*Frame) (*Frame, error) {
	if len(others) == 0 {
		return f, nil
	}

	for _, other := range others {
		if err := f.checkSameSchema(other); err != nil {
			return nil, err
		}
	}

	mem := memory.NewGoAllocator()
	concatenated := make([]ISeries, 0, len(f.order))

	for _, name := range f.order {
		all := []ISeries{f.columns[name]}
		for _, other := range others {
			all = append(all, other.columns[name])
		}
		combined, err := concatSeries(name, all, mem)
		if err != nil {
			return nil, err
		}
		concatenated = append(concatenated, combined)
	}

	return New(concatenated...), nil
}

// checkSameSchema verifies that two frames share column names, order and types.
func (f *Frame) checkSameSchema(other *Frame) error {
	if len(f.order) != len(other.order) {
		return errs.NewInvalidInputError("Concat",
			fmt.Sprintf("schema mismatch: %d vs %d columns", len(f.order), len(other.order)))
	}

	for i, name := range f.order {
		if other.order[i] != name {
			return errs.NewInvalidInputError("Concat",
				fmt.Sprintf("schema mismatch: column %d is %q vs %q", i, name, other.order[i]))
		}
		if f.columns[name].DataType().ID() != other.columns[name].DataType().ID() {
			return errs.NewInvalidInputError("Concat",
				fmt.Sprintf("schema mismatch: column %q has type %s vs %s",
					name, f.columns[name].DataType(), other.columns[name].DataType()))
		}
	}
	return nil
}

// StringValues extracts a string column as values plus a presence mask.
func (f *Frame) StringValues(column string) ([]string, []bool, error) {
	s, exists := f.columns[column]
	if !exists {
		return nil, nil, errs.NewColumnNotFoundError("StringValues", column)
	}

	arr := s.Array()
	defer arr.Release()

	typedArr, ok := arr.(*array.String)
	if !ok {
		return nil, nil, errs.NewUnsupportedTypeError("StringValues", column, s.DataType().String())
	}

	values := make([]string, typedArr.Len())
	valid := make([]bool, typedArr.Len())
	for i := 0; i < typedArr.Len(); i++ {
		if !typedArr.IsNull(i) {
			values[i] = typedArr.Value(i)
			valid[i] = true
		}
	}
	return values, valid, nil
}

// FloatValues extracts a numeric column as float64 values plus a presence
// mask. Integer columns are widened to float64.
func (f *Frame) FloatValues(column string) ([]float64, []bool, error) {
	s, exists := f.columns[column]
	if !exists {
		return nil, nil, errs.NewColumnNotFoundError("FloatValues", column)
	}

	arr := s.Array()
	defer arr.Release()

	valid := make([]bool, s.Len())
	for i := range valid {
		valid[i] = !arr.IsNull(i)
	}

	switch typedArr := arr.(type) {
	case *array.Float64:
		values := make([]float64, typedArr.Len())
		for i := 0; i < typedArr.Len(); i++ {
			if valid[i] {
				values[i] = typedArr.Value(i)
			}
		}
		return values, valid, nil
	case *array.Int64:
		raw := make([]int64, typedArr.Len())
		for i := 0; i < typedArr.Len(); i++ {
			if valid[i] {
				raw[i] = typedArr.Value(i)
			}
		}
		return widenToFloat64(raw), valid, nil
	default:
		return nil, nil, errs.NewUnsupportedTypeError("FloatValues", column, s.DataType().String())
	}
}

// widenToFloat64 converts an integer or float slice to float64.
func widenToFloat64[T constraints.Integer | constraints.Float](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
