package frame

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/series"
)

// takeSeries builds a new series containing the values at indices, with an
// independent data copy so the result does not alias the source buffers.
func takeSeries(s ISeries, indices []int, mem memory.Allocator) ISeries {
	arr := s.Array()
	defer arr.Release()

	switch typedArr := arr.(type) {
	case *array.String:
		return takeTyped(s.Name(), typedArr, indices, mem, func(a *array.String, i int) string { return a.Value(i) })
	case *array.Int64:
		return takeTyped(s.Name(), typedArr, indices, mem, func(a *array.Int64, i int) int64 { return a.Value(i) })
	case *array.Float64:
		return takeTyped(s.Name(), typedArr, indices, mem, func(a *array.Float64, i int) float64 { return a.Value(i) })
	case *array.Boolean:
		return takeTyped(s.Name(), typedArr, indices, mem, func(a *array.Boolean, i int) bool { return a.Value(i) })
	default:
		return series.New(s.Name(), []string{}, mem)
	}
}

// takeTyped is the generic row-gather helper shared by all column types.
func takeTyped[A arrow.Array, T any](
	name string, arr A, indices []int, mem memory.Allocator,
	getValue func(A, int) T,
) ISeries {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for out, idx := range indices {
		if !arr.IsNull(idx) {
			values[out] = getValue(arr, idx)
			valid[out] = true
		}
	}
	return series.NewWithValidity(name, values, valid, mem)
}

// copySeries creates an independent copy of a series, preserving nulls.
func copySeries(s ISeries, mem memory.Allocator) ISeries {
	indices := make([]int, s.Len())
	for i := range indices {
		indices[i] = i
	}
	return takeSeries(s, indices, mem)
}

// renameSeries copies a series under a new name.
func renameSeries(s ISeries, newName string) ISeries {
	arr := s.Array()
	defer arr.Release()

	mem := memory.NewGoAllocator()
	indices := make([]int, s.Len())
	for i := range indices {
		indices[i] = i
	}

	switch typedArr := arr.(type) {
	case *array.String:
		return takeTyped(newName, typedArr, indices, mem, func(a *array.String, i int) string { return a.Value(i) })
	case *array.Int64:
		return takeTyped(newName, typedArr, indices, mem, func(a *array.Int64, i int) int64 { return a.Value(i) })
	case *array.Float64:
		return takeTyped(newName, typedArr, indices, mem, func(a *array.Float64, i int) float64 { return a.Value(i) })
	case *array.Boolean:
		return takeTyped(newName, typedArr, indices, mem, func(a *array.Boolean, i int) bool { return a.Value(i) })
	default:
		return series.New(newName, []string{}, mem)
	}
}

// concatSeries concatenates multiple series of the same type, preserving nulls.
func concatSeries(name string, seriesList []ISeries, mem memory.Allocator) (ISeries, error) {
	if len(seriesList) == 0 {
		return series.New(name, []string{}, mem), nil
	}

	totalLength := 0
	for _, s := range seriesList {
		totalLength += s.Len()
	}

	firstArray := seriesList[0].Array()
	typeID := firstArray.DataType().ID()
	typeName := firstArray.DataType().String()
	firstArray.Release()

	switch typeID {
	case arrow.STRING:
		return concatTyped(name, seriesList, totalLength, mem, func(arr arrow.Array, i int) string {
			return arr.(*array.String).Value(i)
		}), nil
	case arrow.INT64:
		return concatTyped(name, seriesList, totalLength, mem, func(arr arrow.Array, i int) int64 {
			return arr.(*array.Int64).Value(i)
		}), nil
	case arrow.FLOAT64:
		return concatTyped(name, seriesList, totalLength, mem, func(arr arrow.Array, i int) float64 {
			return arr.(*array.Float64).Value(i)
		}), nil
	case arrow.BOOL:
		return concatTyped(name, seriesList, totalLength, mem, func(arr arrow.Array, i int) bool {
			return arr.(*array.Boolean).Value(i)
		}), nil
	default:
		return nil, errs.NewUnsupportedTypeError("Concat", name, typeName)
	}
}

// concatTyped is the generic concatenation helper shared by all column types.
func concatTyped[T any](
	name string, seriesList []ISeries, totalLength int, mem memory.Allocator,
	getValue func(arrow.Array, int) T,
) ISeries {
	values := make([]T, 0, totalLength)
	valid := make([]bool, 0, totalLength)
	for _, s := range seriesList {
		arr := s.Array()
		for i := 0; i < arr.Len(); i++ {
			var v T
			if !arr.IsNull(i) {
				v = getValue(arr, i)
				valid = append(valid, true)
			} else {
				valid = append(valid, false)
			}
			values = append(values, v)
		}
		arr.Release()
	}
	return series.NewWithValidity(name, values, valid, mem)
}
