package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("string series", func(t *testing.T) {
		s := New("names", []string{"alice", "bob", "charlie"}, mem)
		defer s.Release()

		assert.Equal(t, "names", s.Name())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []string{"alice", "bob", "charlie"}, s.Values())
		assert.Equal(t, arrow.STRING, s.DataType().ID())
		assert.Equal(t, 0, s.NullCount())
	})

	t.Run("int64 series", func(t *testing.T) {
		s := New("years", []int64{2001, 2015, 2020}, mem)
		defer s.Release()

		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []int64{2001, 2015, 2020}, s.Values())
		assert.Equal(t, arrow.INT64, s.DataType().ID())
	})

	t.Run("float64 series", func(t *testing.T) {
		s := New("prices", []float64{19999.5, 4500, 88000.25}, mem)
		defer s.Release()

		assert.Equal(t, []float64{19999.5, 4500, 88000.25}, s.Values())
		assert.Equal(t, arrow.FLOAT64, s.DataType().ID())
	})

	t.Run("bool series", func(t *testing.T) {
		s := New("sold", []bool{true, false, true}, mem)
		defer s.Release()

		assert.Equal(t, []bool{true, false, true}, s.Values())
		assert.Equal(t, arrow.BOOL, s.DataType().ID())
	})

	t.Run("empty series", func(t *testing.T) {
		s := New("empty", []string{}, mem)
		defer s.Release()

		assert.Equal(t, 0, s.Len())
	})
}

func TestNewWithValidity(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name          string
		values        []string
		valid         []bool
		wantNullCount int
		wantNulls     []bool
	}{
		{
			name:          "no nulls",
			values:        []string{"a", "b"},
			valid:         []bool{true, true},
			wantNullCount: 0,
			wantNulls:     []bool{false, false},
		},
		{
			name:          "middle null",
			values:        []string{"a", "", "c"},
			valid:         []bool{true, false, true},
			wantNullCount: 1,
			wantNulls:     []bool{false, true, false},
		},
		{
			name:          "all null",
			values:        []string{"", ""},
			valid:         []bool{false, false},
			wantNullCount: 2,
			wantNulls:     []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWithValidity("col", tt.values, tt.valid, mem)
			defer s.Release()

			assert.Equal(t, tt.wantNullCount, s.NullCount())
			for i, wantNull := range tt.wantNulls {
				assert.Equal(t, wantNull, s.IsNull(i), "index %d", i)
			}
		})
	}
}

func TestNewWithValidityMaskMismatchPanics(t *testing.T) {
	mem := memory.NewGoAllocator()

	assert.Panics(t, func() {
		NewWithValidity("col", []int64{1, 2, 3}, []bool{true}, mem)
	})
}

func TestNewUnsupportedTypePanics(t *testing.T) {
	mem := memory.NewGoAllocator()

	assert.Panics(t, func() {
		New("col", []int32{1, 2}, mem)
	})
}

func TestValuesWithValidity(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := NewWithValidity("mileage", []float64{12000, 0, 98000}, []bool{true, false, true}, mem)
	defer s.Release()

	values, valid := s.ValuesWithValidity()
	assert.Equal(t, []float64{12000, 0, 98000}, values)
	assert.Equal(t, []bool{true, false, true}, valid)
}

func TestValue(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := New("years", []int64{2001, 2015}, mem)
	defer s.Release()

	assert.Equal(t, int64(2001), s.Value(0))
	assert.Equal(t, int64(2015), s.Value(1))
	assert.Equal(t, int64(0), s.Value(-1))
	assert.Equal(t, int64(0), s.Value(2))
}

func TestArrayRetains(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := New("col", []int64{1, 2, 3}, mem)
	defer s.Release()

	arr := s.Array()
	require.NotNil(t, arr)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
}

func TestString(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := NewWithValidity("make", []string{"a", ""}, []bool{true, false}, mem)
	defer s.Release()

	assert.Contains(t, s.String(), "make")
	assert.Contains(t, s.String(), "len=2")
	assert.Contains(t, s.String(), "nulls=1")
}
