package prep

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
)

// Split partitions the rows of a frame into two disjoint frames by weighted
// random assignment. The assignment for each row is a pure function of
// (seed, row ordinal), so a fixed seed reproduces the identical partition
// on identical input. The split is probabilistic, not exact: weights give
// the expected proportions only.
func Split(f *frame.Frame, firstWeight, secondWeight float64, seed uint64) (*frame.Frame, *frame.Frame, error) {
	if firstWeight <= 0 || secondWeight <= 0 {
		return nil, nil, errs.NewInvalidInputError("Split", "weights must be positive")
	}

	threshold := firstWeight / (firstWeight + secondWeight)

	var first, second []int
	for i := 0; i < f.Len(); i++ {
		if rowUniform(seed, uint64(i)) < threshold {
			first = append(first, i)
		} else {
			second = append(second, i)
		}
	}

	return f.Take(first), f.Take(second), nil
}

// rowUniform hashes (seed, row) into a uniform float in [0, 1).
func rowUniform(seed, row uint64) float64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], row)
	h := xxhash.Sum64(buf[:])
	// keep 53 bits so the quotient is exactly representable
	return float64(h>>11) / (1 << 53)
}
