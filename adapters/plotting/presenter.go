// Package plotting renders relative-entropy result tables as PNG time
// series, one panel per decomposition component.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"climent/domain/entropy"
)

var componentColors = map[entropy.Component]color.RGBA{
	entropy.ComponentR: {R: 65, G: 105, B: 225, A: 255}, // royal blue
	entropy.ComponentS: {R: 205, G: 92, B: 92, A: 255},  // indian red
	entropy.ComponentD: {R: 218, G: 165, B: 32, A: 255}, // goldenrod
}

var componentTitles = map[entropy.Component]string{
	entropy.ComponentR: "Relative Entropy",
	entropy.ComponentS: "Signal",
	entropy.ComponentD: "Dispersion",
}

// PNGPresenter writes one PNG per component into OutputDir: individual
// initialization traces in gray, the cross-initialization median in the
// component color, a dashed median +/- std band, and an optional dashed
// threshold line.
type PNGPresenter struct {
	OutputDir string
	Prefix    string
	Width     vg.Length
	Height    vg.Length
}

// NewPNGPresenter creates a presenter writing into dir with default panel
// dimensions.
func NewPNGPresenter(dir string) *PNGPresenter {
	return &PNGPresenter{
		OutputDir: dir,
		Prefix:    "relative_entropy",
		Width:     8 * vg.Inch,
		Height:    6 * vg.Inch,
	}
}

// Present renders the table. Threshold may be nil.
func (p *PNGPresenter) Present(table *entropy.ResultTable, threshold entropy.Threshold) error {
	for _, c := range entropy.Components() {
		if err := p.renderComponent(table, threshold, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *PNGPresenter) renderComponent(table *entropy.ResultTable, threshold entropy.Threshold, c entropy.Component) error {
	pl := plot.New()
	pl.Title.Text = componentTitles[c]
	pl.X.Label.Text = "Lead Year"
	pl.Y.Label.Text = string(c)
	if c == entropy.ComponentR {
		pl.Y.Min = 0
	}

	gray := color.RGBA{R: 128, G: 128, B: 128, A: 140}
	var firstTrace *plotter.Line
	for _, init := range table.Inits() {
		pts := seriesPoints(table.Leads(), table.Series(c, init))
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = gray
		line.Width = vg.Points(0.5)
		pl.Add(line)
		if firstTrace == nil {
			firstTrace = line
		}
	}
	if firstTrace != nil {
		pl.Legend.Add("individual initializations", firstTrace)
	}

	medians, stds := summarize(table, c)
	medLine, err := plotter.NewLine(seriesPoints(table.Leads(), medians))
	if err != nil {
		return err
	}
	medLine.Color = componentColors[c]
	medLine.Width = vg.Points(2.5)
	pl.Add(medLine)
	pl.Legend.Add(string(c), medLine)

	for _, sign := range []float64{-1, 1} {
		band := make([]float64, len(medians))
		for i := range band {
			band[i] = medians[i] + sign*stds[i]
		}
		bandLine, err := plotter.NewLine(seriesPoints(table.Leads(), band))
		if err != nil {
			return err
		}
		bandLine.Color = componentColors[c]
		bandLine.Width = vg.Points(2.5)
		bandLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		pl.Add(bandLine)
		if sign < 0 {
			pl.Legend.Add(string(c)+" median +/- std", bandLine)
		}
	}

	if threshold != nil {
		if thr, ok := threshold[c]; ok {
			leads := table.Leads()
			if len(leads) > 0 {
				pts := plotter.XYs{
					{X: float64(leads[0]), Y: thr},
					{X: float64(leads[len(leads)-1]), Y: thr},
				}
				thrLine, err := plotter.NewLine(pts)
				if err != nil {
					return err
				}
				thrLine.Color = gray
				thrLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
				pl.Add(thrLine)
				pl.Legend.Add("bootstrapped threshold", thrLine)
			}
		}
	}
	pl.Legend.Top = true

	file := filepath.Join(p.OutputDir, fmt.Sprintf("%s_%s.png", p.Prefix, c))
	return pl.Save(p.Width, p.Height, file)
}

// summarize computes the per-lead median and standard deviation across
// initializations, skipping NaN cells.
func summarize(table *entropy.ResultTable, c entropy.Component) (medians, stds []float64) {
	leads := table.Leads()
	medians = make([]float64, len(leads))
	stds = make([]float64, len(leads))
	for i, lead := range leads {
		var row []float64
		for _, v := range table.Row(lead, c) {
			if !math.IsNaN(v) {
				row = append(row, v)
			}
		}
		if len(row) == 0 {
			medians[i], stds[i] = math.NaN(), math.NaN()
			continue
		}
		medians[i], _ = stats.Median(row)
		stds[i], _ = stats.StandardDeviation(row)
	}
	return medians, stds
}

func seriesPoints(leads []int, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(leads[i]), Y: v})
	}
	return pts
}
