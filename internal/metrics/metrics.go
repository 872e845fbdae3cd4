// Package metrics computes regression accuracy metrics over frame columns.
package metrics

import (
	"math"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
)

// RMSE returns the root-mean-squared-error between the actual and
// predicted columns.
func RMSE(f *frame.Frame, actualColumn, predictedColumn string) (float64, error) {
	actual, predicted, err := pairedColumns(f, actualColumn, predictedColumn)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}

// R2 returns the coefficient of determination between the actual and
// predicted columns. A constant actual column yields 0.
func R2(f *frame.Frame, actualColumn, predictedColumn string) (float64, error) {
	actual, predicted, err := pairedColumns(f, actualColumn, predictedColumn)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	ssTot := 0.0
	ssRes := 0.0
	for i := range actual {
		d := actual[i] - mean
		ssTot += d * d
		r := actual[i] - predicted[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// pairedColumns extracts two numeric columns of equal, non-zero length.
func pairedColumns(f *frame.Frame, actualColumn, predictedColumn string) ([]float64, []float64, error) {
	actual, _, err := f.FloatValues(actualColumn)
	if err != nil {
		return nil, nil, err
	}
	predicted, _, err := f.FloatValues(predictedColumn)
	if err != nil {
		return nil, nil, err
	}
	if len(actual) == 0 {
		return nil, nil, errs.ErrEmptyFrame
	}
	if len(actual) != len(predicted) {
		return nil, nil, errs.ErrMismatchedLength
	}
	return actual, predicted, nil
}
