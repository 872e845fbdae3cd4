package prep

import (
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
	"github.com/treeline-data/treeline/internal/warehouse"
)

func newTestSession(t *testing.T) *warehouse.Session {
	t.Helper()
	store, err := warehouse.Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return warehouse.NewSession(store)
}

func TestClean(t *testing.T) {
	sess := newTestSession(t)
	ref := warehouse.ParseRef("bench.vehicles")

	mem := memory.NewGoAllocator()
	f := frame.New(
		series.New("price", []float64{15000, 230000, 100000, 42000}, mem),
		series.NewWithValidity("make", []string{"toyota", "bentley", "ford", ""}, []bool{true, true, true, false}, mem),
		series.NewWithValidity("mileage", []float64{80000, 5000, 0, 0}, []bool{true, true, true, false}, mem),
		series.New("vin", []string{"V1", "V2", "V3", "V4"}, mem),
	)
	defer f.Release()
	require.NoError(t, sess.Save(ref, f))

	cleaned, err := Clean(sess.Table(ref), CleanSpec{
		PriceColumn: "price",
		PriceCap:    100000,
		DropColumns: []string{"vin"},
		StringFill:  MissingString,
	}).Collect()
	require.NoError(t, err)
	defer cleaned.Release()

	// 230000 and the exactly-at-cap 100000 row are gone
	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, []string{"price", "make", "mileage"}, cleaned.Columns())

	makes, valid, err := cleaned.StringValues("make")
	require.NoError(t, err)
	assert.Equal(t, []string{"toyota", MissingString}, makes)
	assert.Equal(t, []bool{true, true}, valid)

	mileage, valid, err := cleaned.FloatValues("mileage")
	require.NoError(t, err)
	assert.Equal(t, []float64{80000, 0}, mileage)
	assert.Equal(t, []bool{true, true}, valid)
}

func TestCleanDefaultsStringFill(t *testing.T) {
	sess := newTestSession(t)
	ref := warehouse.ParseRef("bench.vehicles")

	mem := memory.NewGoAllocator()
	f := frame.New(
		series.New("price", []float64{100}, mem),
		series.NewWithValidity("make", []string{""}, []bool{false}, mem),
	)
	defer f.Release()
	require.NoError(t, sess.Save(ref, f))

	cleaned, err := Clean(sess.Table(ref), CleanSpec{
		PriceColumn: "price",
		PriceCap:    100000,
	}).Collect()
	require.NoError(t, err)
	defer cleaned.Release()

	makes, _, err := cleaned.StringValues("make")
	require.NoError(t, err)
	assert.Equal(t, []string{MissingString}, makes)
}

func TestAmplify(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name     string
		rounds   int
		wantRows int
	}{
		{name: "zero rounds is identity", rounds: 0, wantRows: 3},
		{name: "one round doubles", rounds: 1, wantRows: 6},
		{name: "two rounds quadruple", rounds: 2, wantRows: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frame.New(
				series.New("price", []float64{1, 2, 3}, mem),
				series.New("make", []string{"a", "b", "c"}, mem),
			)
			defer f.Release()

			out, err := Amplify(f, tt.rounds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, out.Len())
			assert.Equal(t, f.Columns(), out.Columns())
		})
	}
}

func TestAmplifyRepeatsRows(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(series.New("price", []float64{1, 2}, mem))
	defer f.Release()

	out, err := Amplify(f, 2)
	require.NoError(t, err)

	values, _, err := out.FloatValues("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2, 1, 2}, values)
}

func TestAmplifyNegativeRounds(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(series.New("price", []float64{1}, mem))
	defer f.Release()

	_, err := Amplify(f, -1)
	assert.Error(t, err)
}
