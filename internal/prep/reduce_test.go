package prep

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

func TestReduceCardinality(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name   string
		values []string
		topK   int
		want   []string
	}{
		{
			name:   "keeps top values",
			values: []string{"a", "a", "a", "b", "b", "c"},
			topK:   2,
			want:   []string{"a", "a", "a", "b", "b", InfrequentValue},
		},
		{
			name:   "topK covers everything",
			values: []string{"a", "b", "c"},
			topK:   10,
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "count ties break by value ascending",
			values: []string{"z", "a", "z", "a", "m"},
			topK:   1,
			want:   []string{InfrequentValue, "a", InfrequentValue, "a", InfrequentValue},
		},
		{
			name:   "topK zero maps everything",
			values: []string{"a", "b"},
			topK:   0,
			want:   []string{InfrequentValue, InfrequentValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frame.New(series.New("make", tt.values, mem))
			defer f.Release()

			out, err := ReduceCardinality(f, "make", tt.topK, InfrequentValue)
			require.NoError(t, err)

			got, _, err := out.StringValues("make")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduceCardinalityLeavesNulls(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(series.NewWithValidity("make",
		[]string{"a", "", "b"}, []bool{true, false, true}, mem))
	defer f.Release()

	out, err := ReduceCardinality(f, "make", 1, InfrequentValue)
	require.NoError(t, err)

	values, valid, err := out.StringValues("make")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, valid)
	assert.Equal(t, "a", values[0])
	assert.Equal(t, InfrequentValue, values[2])
}

func TestReduceCardinalityPreservesOtherColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(
		series.New("price", []float64{1, 2, 3}, mem),
		series.New("make", []string{"a", "b", "b"}, mem),
	)
	defer f.Release()

	out, err := ReduceCardinality(f, "make", 1, InfrequentValue)
	require.NoError(t, err)

	assert.Equal(t, []string{"price", "make"}, out.Columns())
	prices, _, err := out.FloatValues("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, prices)
}

func TestReduceCardinalityMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(series.New("price", []float64{1}, mem))
	defer f.Release()

	_, err := ReduceCardinality(f, "make", 1, InfrequentValue)
	assert.Error(t, err)
}

func TestReduceCardinalityDeterministic(t *testing.T) {
	mem := memory.NewGoAllocator()

	values := make([]string, 200)
	for i := range values {
		values[i] = fmt.Sprintf("make_%03d", i%50)
	}

	var previous []string
	for run := 0; run < 3; run++ {
		f := frame.New(series.New("make", values, mem))
		out, err := ReduceCardinality(f, "make", 10, InfrequentValue)
		require.NoError(t, err)

		got, _, err := out.StringValues("make")
		require.NoError(t, err)
		if previous != nil {
			assert.Equal(t, previous, got)
		}
		previous = got
		f.Release()
	}
}
