package chart

import (
	"fmt"
	"image/color"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// corrGrid adapts a CorrelationMatrix to plotter.GridXYZ. Row 0 of the
// matrix is drawn at the top.
type corrGrid struct {
	m *domain.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[g.row(r)][c] }

func (g corrGrid) row(r int) int      { return len(g.m.Columns) - 1 - r }
func (g corrGrid) label(r int) string { return g.m.Columns[g.row(r)] }

func correlationMatrix(res domain.Result) (*plot.Plot, error) {
	if res.Correlation == nil || len(res.Correlation.Columns) == 0 {
		return nil, errNoData
	}
	g := corrGrid{m: res.Correlation}
	n := len(g.m.Columns)

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	hm := plotter.NewHeatMap(g, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Correlation Matrix - %s", res.Location)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Add(hm)

	var (
		xTicks, yTicks []plot.Tick
		labels         plotter.XYLabels
	)
	for i := 0; i < n; i++ {
		xTicks = append(xTicks, plot.Tick{Value: g.X(i), Label: g.m.Columns[i]})
		yTicks = append(yTicks, plot.Tick{Value: g.Y(i), Label: g.label(i)})
		for r := 0; r < n; r++ {
			labels.XYs = append(labels.XYs, plotter.XY{X: g.X(i), Y: g.Y(r)})
			labels.Labels = append(labels.Labels, annotation(g.Z(i, r)))
		}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	annotations, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = draw.XCenter
		annotations.TextStyle[i].YAlign = draw.YCenter
		annotations.TextStyle[i].Font.Size = vg.Points(14)
	}
	p.Add(annotations)
	return p, nil
}

func annotation(v float64) string {
	if domain.IsMissing(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
