package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

func TestScatterPlotWritesPNG(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(
		series.New("price", []float64{100, 200, 300, 400}, mem),
		series.New("predicted", []float64{110, 190, 310, 390}, mem),
	)
	defer f.Release()

	path := filepath.Join(t.TempDir(), "scatter.png")
	require.NoError(t, ScatterPlot(f, "price", "predicted", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestScatterPlotErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	f := frame.New(
		series.New("price", []float64{1, 2}, mem),
		series.New("predicted", []float64{1, 2}, mem),
	)
	defer f.Release()

	t.Run("missing actual column", func(t *testing.T) {
		err := ScatterPlot(f, "missing", "predicted", filepath.Join(t.TempDir(), "p.png"))
		assert.Error(t, err)
	})

	t.Run("missing predicted column", func(t *testing.T) {
		err := ScatterPlot(f, "price", "missing", filepath.Join(t.TempDir(), "p.png"))
		assert.Error(t, err)
	})

	t.Run("unwritable path", func(t *testing.T) {
		err := ScatterPlot(f, "price", "predicted", filepath.Join(t.TempDir(), "no", "such", "dir", "p.png"))
		assert.Error(t, err)
	})
}
