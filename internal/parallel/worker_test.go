package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{name: "explicit size", size: 3, want: 3},
		{name: "zero defaults to cpu count", size: 0, want: runtime.NumCPU()},
		{name: "negative defaults to cpu count", size: -5, want: runtime.NumCPU()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.size)
			defer pool.Close()
			assert.Equal(t, tt.want, pool.NumWorkers())
		})
	}
}

func TestProcess(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := Process(pool, items, func(v int) int { return v * 2 })

	assert.Len(t, results, 100)
	sum := 0
	for _, r := range results {
		sum += r
	}
	assert.Equal(t, 9900, sum)
}

func TestProcessEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	assert.Nil(t, Process(pool, nil, func(v int) int { return v }))
}

func TestProcessIndexedPreservesOrder(t *testing.T) {
	pool := NewWorkerPool(8)
	defer pool.Close()

	items := make([]int, 500)
	for i := range items {
		items[i] = i
	}

	results := ProcessIndexed(pool, items, func(idx, v int) int {
		return idx + v
	})

	for i, r := range results {
		assert.Equal(t, 2*i, r, "index %d", i)
	}
}

func TestProcessIndexedRunsEveryItem(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var calls atomic.Int64
	items := make([]int, 64)
	ProcessIndexed(pool, items, func(int, int) struct{} {
		calls.Add(1)
		return struct{}{}
	})

	assert.Equal(t, int64(64), calls.Load())
}

func TestPoolReusableAcrossCalls(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	for run := 0; run < 5; run++ {
		results := ProcessIndexed(pool, []int{1, 2, 3}, func(_, v int) int { return v })
		assert.Equal(t, []int{1, 2, 3}, results)
	}
}
