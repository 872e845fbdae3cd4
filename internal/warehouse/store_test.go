package warehouse

import (
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newListingFrame(t *testing.T) *frame.Frame {
	t.Helper()
	mem := memory.NewGoAllocator()
	return frame.New(
		series.New("price", []float64{15000, 8000, 42000}, mem),
		series.NewWithValidity("make", []string{"toyota", "", "honda"}, []bool{true, false, true}, mem),
		series.New("year", []int64{2012, 2005, 2018}, mem),
		series.New("sold", []bool{true, false, false}, mem),
	)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		name       string
		qualified  string
		wantSchema string
		wantName   string
	}{
		{name: "schema qualified", qualified: "bench.vehicles", wantSchema: "bench", wantName: "vehicles"},
		{name: "bare name", qualified: "vehicles", wantSchema: "", wantName: "vehicles"},
		{name: "nested dots split on last", qualified: "a.b.c", wantSchema: "a.b", wantName: "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseRef(tt.qualified)
			assert.Equal(t, tt.wantSchema, ref.Schema)
			assert.Equal(t, tt.wantName, ref.Name)
			assert.Equal(t, tt.qualified, ref.String())
		})
	}
}

func TestTableRefWithSuffix(t *testing.T) {
	ref := ParseRef("bench.vehicles")
	derived := ref.WithSuffix("_prepared")
	assert.Equal(t, "bench.vehicles_prepared", derived.String())
	// original unchanged
	assert.Equal(t, "bench.vehicles", ref.String())
}

func TestSaveAndLoadTable(t *testing.T) {
	store := openTestStore(t)
	ref := ParseRef("bench.vehicles")

	original := newListingFrame(t)
	defer original.Release()

	require.NoError(t, store.SaveTable(ref, original))

	loaded, err := store.LoadTable(ref)
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, original.Columns(), loaded.Columns())
	assert.Equal(t, original.Len(), loaded.Len())

	prices, _, err := loaded.FloatValues("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{15000, 8000, 42000}, prices)

	makes, valid, err := loaded.StringValues("make")
	require.NoError(t, err)
	assert.Equal(t, []string{"toyota", "", "honda"}, makes)
	assert.Equal(t, []bool{true, false, true}, valid)

	years, _, err := loaded.FloatValues("year")
	require.NoError(t, err)
	assert.Equal(t, []float64{2012, 2005, 2018}, years)
}

func TestSaveTableOverwrites(t *testing.T) {
	store := openTestStore(t)
	ref := ParseRef("bench.vehicles")
	mem := memory.NewGoAllocator()

	first := frame.New(series.New("price", []float64{1, 2}, mem))
	defer first.Release()
	require.NoError(t, store.SaveTable(ref, first))

	second := frame.New(series.New("price", []float64{9}, mem))
	defer second.Release()
	require.NoError(t, store.SaveTable(ref, second))

	loaded, err := store.LoadTable(ref)
	require.NoError(t, err)
	defer loaded.Release()
	assert.Equal(t, 1, loaded.Len())
}

func TestLoadTableNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LoadTable(ParseRef("bench.missing"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bench.missing")
}

func TestHasAndDropTable(t *testing.T) {
	store := openTestStore(t)
	ref := ParseRef("bench.vehicles")

	assert.False(t, store.HasTable(ref))

	f := newListingFrame(t)
	defer f.Release()
	require.NoError(t, store.SaveTable(ref, f))
	assert.True(t, store.HasTable(ref))

	require.NoError(t, store.DropTable(ref))
	assert.False(t, store.HasTable(ref))
}

func TestListTables(t *testing.T) {
	store := openTestStore(t)
	f := newListingFrame(t)
	defer f.Release()

	require.NoError(t, store.SaveTable(ParseRef("bench.vehicles"), f))
	require.NoError(t, store.SaveTable(ParseRef("bench.archive"), f))

	tables, err := store.ListTables()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bench.vehicles", "bench.archive"}, tables)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.db")
	ref := ParseRef("bench.vehicles")

	store, err := Open(path)
	require.NoError(t, err)
	f := newListingFrame(t)
	defer f.Release()
	require.NoError(t, store.SaveTable(ref, f))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadTable(ref)
	require.NoError(t, err)
	defer loaded.Release()
	assert.Equal(t, 3, loaded.Len())
}
