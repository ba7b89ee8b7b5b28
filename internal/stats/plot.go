package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"evovec/internal/model"
)

// WriteFitnessPlot draws current and best fitness against iteration.
func WriteFitnessPlot(path, title string, history []model.HistorySample) error {
	if len(history) == 0 {
		return fmt.Errorf("fitness history is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Fitness"

	currentPts := make(plotter.XYs, len(history))
	bestPts := make(plotter.XYs, len(history))
	for i, sample := range history {
		currentPts[i].X = float64(sample.Iteration)
		currentPts[i].Y = float64(sample.Current)
		bestPts[i].X = float64(sample.Iteration)
		bestPts[i].Y = float64(sample.Best)
	}

	currentLine, err := plotter.NewLine(currentPts)
	if err != nil {
		return err
	}
	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	bestLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(currentLine, bestLine)
	p.Legend.Add("current", currentLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
