package prep

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

// ReduceCardinality bounds the vocabulary of one string column: the topK
// most frequent values survive, everything else is remapped to sentinel.
// Ranking is by count descending with ties broken by value ascending, so
// the result is deterministic for identical input data.
//
// The column is materialized into local memory for counting; the caller is
// expected to re-upload the result as a new table.
func ReduceCardinality(f *frame.Frame, column string, topK int, sentinel string) (*frame.Frame, error) {
	values, valid, err := f.StringValues(column)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i, v := range values {
		if valid[i] {
			counts[v]++
		}
	}

	type valueCount struct {
		value string
		count int
	}
	ranked := make([]valueCount, 0, len(counts))
	for v, c := range counts {
		ranked = append(ranked, valueCount{value: v, count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].value < ranked[j].value
	})

	keep := make(map[string]bool, topK)
	for i, vc := range ranked {
		if i >= topK {
			break
		}
		keep[vc.value] = true
	}

	remapped := make([]string, len(values))
	for i, v := range values {
		switch {
		case !valid[i]:
			// leave nulls alone; the fill stage owns missing values
		case keep[v]:
			remapped[i] = v
		default:
			remapped[i] = sentinel
		}
	}

	mem := memory.NewGoAllocator()
	return f.WithColumn(column, series.NewWithValidity(column, remapped, valid, mem))
}
