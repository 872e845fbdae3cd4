package prep

import (
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

// OneHotEncode expands every string column into float64 indicator columns
// and drops the originals. Generated names are sanitized (non-alphanumeric
// runes become underscores, leading underscores are stripped) and
// disambiguated with the positional index of the source column, then the
// whole frame is reordered lexicographically so downstream model input is
// deterministic.
//
// Running the encoder on a frame with no string columns is a no-op, so the
// transformation is idempotent.
func OneHotEncode(f *frame.Frame) (*frame.Frame, error) {
	stringCols := f.StringColumnNames()
	if len(stringCols) == 0 {
		return f, nil
	}

	// positional index of every column, used as the disambiguating suffix
	position := make(map[string]int, f.Width())
	for i, name := range f.Columns() {
		position[name] = i
	}

	out := f
	for _, col := range stringCols {
		values, valid, err := f.StringValues(col)
		if err != nil {
			return nil, err
		}

		distinct := distinctSorted(values, valid)
		mem := memory.NewGoAllocator()

		for _, category := range distinct {
			indicator := make([]float64, len(values))
			for i, v := range values {
				if valid[i] && v == category {
					indicator[i] = 1
				}
			}
			name := encodedName(category, position[col])
			out, err = out.WithColumn(name, series.New(name, indicator, mem))
			if err != nil {
				return nil, err
			}
		}
	}

	return out.Drop(stringCols...).SortColumns(), nil
}

// distinctSorted returns the distinct present values in ascending order.
func distinctSorted(values []string, valid []bool) []string {
	seen := make(map[string]bool)
	var distinct []string
	for i, v := range values {
		if valid[i] && !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	sort.Strings(distinct)
	return distinct
}

// encodedName builds the output column name for one category value. The
// sanitized value could start with a delimiter after replacement; that
// prefix is stripped before the positional suffix is attached. Distinct
// source columns always get distinct suffixes, so names cannot collide.
func encodedName(category string, sourcePosition int) string {
	sanitized := sanitizeName(category)
	sanitized = strings.TrimLeft(sanitized, "_")
	if sanitized == "" {
		sanitized = "value"
	}
	return sanitized + "_" + strconv.Itoa(sourcePosition)
}

// sanitizeName maps every rune outside [A-Za-z0-9] to an underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
