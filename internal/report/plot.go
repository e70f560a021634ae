package report

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotEnergyPredictionAccuracy renders a predicted-vs-expected scatter with
// the identity line, next to the text record.
func PlotEnergyPredictionAccuracy(predicted, expected []float64, outputFilename string) error {
	if len(predicted) == 0 || len(predicted) != len(expected) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputFilename), 0o755); err != nil {
		return err
	}

	var p = plot.New()
	p.Title.Text = "Energy prediction accuracy"
	p.X.Label.Text = "expected (eV/atom)"
	p.Y.Label.Text = "predicted (eV/atom)"

	var pts = make(plotter.XYs, len(predicted))
	var lo, hi = expected[0], expected[0]
	for i := range predicted {
		pts[i].X = expected[i]
		pts[i].Y = predicted[i]
		if expected[i] < lo {
			lo = expected[i]
		}
		if expected[i] > hi {
			hi = expected[i]
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	p.Add(scatter, identity)

	return p.Save(5*vg.Inch, 5*vg.Inch, outputFilename)
}
