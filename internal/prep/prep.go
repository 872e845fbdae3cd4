// Package prep implements the feature preparation stages: cleaning,
// cardinality reduction, volume amplification, one-hot encoding and the
// train/test split.
package prep

import (
	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/warehouse"
)

// Sentinels used across the preparation stages.
const (
	// MissingString replaces missing values in string columns.
	MissingString = "NA"
	// InfrequentValue replaces long-tail categorical values.
	InfrequentValue = "INFREQUENT"
)

// CleanSpec configures the cleaning stage.
type CleanSpec struct {
	PriceColumn string   // numeric column the outlier cap applies to
	PriceCap    float64  // rows at or above this value are removed
	DropColumns []string // identifier and free-text columns to discard
	StringFill  string   // sentinel for missing string values
}

// Clean composes the cleaning transformations onto a scan: cap the price
// column, drop unneeded columns, then fill missing values by column type.
// The work runs when the scan is collected.
func Clean(sc *warehouse.Scan, spec CleanSpec) *warehouse.Scan {
	fill := spec.StringFill
	if fill == "" {
		fill = MissingString
	}
	return sc.
		FilterLess(spec.PriceColumn, spec.PriceCap).
		Drop(spec.DropColumns...).
		FillMissing(fill)
}

// Amplify self-unions the frame the given number of rounds, doubling the
// row count each round. It exists purely to build benchmarking workloads;
// rounds=2 yields 4x the input rows.
func Amplify(f *frame.Frame, rounds int) (*frame.Frame, error) {
	if rounds < 0 {
		return nil, errs.NewInvalidInputError("Amplify", "rounds must be non-negative")
	}

	out := f
	for range rounds {
		doubled, err := out.Concat(out)
		if err != nil {
			return nil, err
		}
		out = doubled
	}
	return out, nil
}
