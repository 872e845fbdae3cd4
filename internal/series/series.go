// Package series provides typed, Apache Arrow backed data columns.
package series

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series represents a typed data column with an Apache Arrow backend.
// Missing values are tracked through the Arrow validity bitmap.
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values with no missing entries.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewWithValidity(name, values, nil, mem)
}

// NewWithValidity creates a new Series from values and a validity mask.
// A nil mask means every value is present; valid[i] == false marks a null.
func NewWithValidity[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("series: validity mask length %d does not match values length %d", len(valid), len(values)))
	}

	present := func(i int) bool { return valid == nil || valid[i] }

	var arr arrow.Array

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if present(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if present(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if present(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if present(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("series: unsupported type: %T", values))
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null slots carry the zero value;
// use ValuesWithValidity when the distinction matters.
func (s *Series[T]) Values() []T {
	values, _ := s.ValuesWithValidity()
	return values
}

// ValuesWithValidity returns the data and a mask marking present values.
func (s *Series[T]) ValuesWithValidity() ([]T, []bool) {
	result := make([]T, s.array.Len())
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = !s.array.IsNull(i)
	}

	switch arr := s.array.(type) {
	case *array.String:
		values := any(result).([]string)
		for i := 0; i < arr.Len(); i++ {
			if valid[i] {
				values[i] = arr.Value(i)
			}
		}
	case *array.Int64:
		values := any(result).([]int64)
		for i := 0; i < arr.Len(); i++ {
			if valid[i] {
				values[i] = arr.Value(i)
			}
		}
	case *array.Float64:
		values := any(result).([]float64)
		for i := 0; i < arr.Len(); i++ {
			if valid[i] {
				values[i] = arr.Value(i)
			}
		}
	case *array.Boolean:
		values := any(result).([]bool)
		for i := 0; i < arr.Len(); i++ {
			if valid[i] {
				values[i] = arr.Value(i)
			}
		}
	default:
		panic(fmt.Sprintf("series: unsupported array type: %T", arr))
	}

	return result, valid
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	}

	return result
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// NullCount returns the number of missing values
func (s *Series[T]) NullCount() int {
	return s.array.NullN()
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullCount())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
