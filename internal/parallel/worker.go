// Package parallel provides the worker pool behind the parallel tree
// construction backend.
//
// It implements a fan-out/fan-in pattern over a fixed set of goroutines.
// The boosted-tree trainer uses ProcessIndexed to scan candidate split
// features concurrently while keeping results aligned with their feature
// index, so the reduction over results stays deterministic.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive size defaults to
// the CPU count.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NumWorkers returns the configured pool size.
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Process executes work items in parallel using a fan-out/fan-in pattern.
// Result order is unspecified.
func Process[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan T, len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{result: worker(item)}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for _, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, 0, len(items))
	for result := range resultCh {
		results = append(results, result.result)
	}

	return results
}

// ProcessIndexed executes work items in parallel while preserving order.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
