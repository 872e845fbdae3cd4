// Package viz renders the predicted-vs-actual scatter plot.
package viz

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
)

const plotSize = 6 * vg.Inch

// ScatterPlot writes a PNG scatter of predicted values against actual
// values to path. Rendering is a side effect of the scoring stage; the
// pipeline does not depend on its output.
func ScatterPlot(f *frame.Frame, actualColumn, predictedColumn, path string) error {
	actual, _, err := f.FloatValues(actualColumn)
	if err != nil {
		return err
	}
	predicted, _, err := f.FloatValues(predictedColumn)
	if err != nil {
		return err
	}
	if len(actual) != len(predicted) {
		return errs.ErrMismatchedLength
	}

	pts := make(plotter.XYs, len(actual))
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
	}

	p := plot.New()
	p.Title.Text = "Predicted vs Actual"
	p.X.Label.Text = actualColumn
	p.Y.Label.Text = predictedColumn

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errs.NewInternalError("ScatterPlot", err)
	}
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)

	if err := p.Save(plotSize, plotSize, path); err != nil {
		return errs.NewInternalError("ScatterPlot", err)
	}
	return nil
}
