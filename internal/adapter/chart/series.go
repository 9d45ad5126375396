package chart

import (
	"image/color"
	"math"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// newTimePlot returns a plot with a date x axis, grid and legend.
func newTimePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: domain.DateLayout}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

// segments splits a date series into runs of present values. Missing values
// break the line instead of being drawn.
func segments(dates []time.Time, values []float64) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i := range values {
		if i >= len(dates) || domain.IsMissing(values[i]) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(dates[i].Unix()), Y: values[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// addSeries draws one named line per segment; only the first is added to the legend.
func addSeries(p *plot.Plot, name string, c color.Color, dates []time.Time, values []float64) error {
	for i, seg := range segments(dates, values) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		if i == 0 {
			p.Legend.Add(name, line)
		}
	}
	return nil
}
