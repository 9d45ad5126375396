// Package chart renders the pipeline's figures with gonum/plot.
package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart identifiers, also used as file base names.
const (
	DailyCases         = "daily_cases"
	DailyMetrics       = "daily_metrics"
	SmoothedOverlay    = "smoothed_overlay"
	LocationComparison = "location_comparison"
	CorrelationMatrix  = "correlation_matrix"
)

// IDs lists every chart in render order.
var IDs = []string{DailyCases, DailyMetrics, SmoothedOverlay, LocationComparison, CorrelationMatrix}

var (
	orange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	blue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	red    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	green  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// errNoData marks a chart that has nothing to draw and is skipped.
var errNoData = errors.New("no data to plot")

type figure struct {
	id            string
	width, height vg.Length
	build         func(domain.Result) (*plot.Plot, error)
}

// Renderer writes one image file per chart into a directory.
// It implements pipeline.Renderer.
type Renderer struct {
	dir    string
	format string
	window int
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing files with the given extension
// (png, svg or pdf). window labels the smoothed series.
func NewRenderer(dir, format string, window int, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, format: format, window: window, logger: logger}
}

// Charts returns the identifiers of every chart Render may write.
func (r *Renderer) Charts() []string { return IDs }

// Path returns the file a chart is written to.
func (r *Renderer) Path(id string) string {
	return filepath.Join(r.dir, id+"."+r.format)
}

// Render draws every chart for res and returns the written paths in order.
// Charts without data are logged and skipped.
func (r *Renderer) Render(ctx context.Context, res domain.Result) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	var written []string
	for _, fig := range r.figures() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		p, err := fig.build(res)
		if errors.Is(err, errNoData) {
			r.logger.Warn("chart skipped", "chart", fig.id, "reason", err)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("build %s: %w", fig.id, err)
		}
		path := r.Path(fig.id)
		if err := p.Save(fig.width, fig.height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", fig.id, err)
		}
		r.logger.Debug("chart written", "chart", fig.id, "path", path)
		written = append(written, path)
	}
	return written, nil
}

func (r *Renderer) figures() []figure {
	return []figure{
		{DailyCases, 12 * vg.Inch, 6 * vg.Inch, r.dailyCases},
		{DailyMetrics, 14 * vg.Inch, 8 * vg.Inch, r.dailyMetrics},
		{SmoothedOverlay, 14 * vg.Inch, 10 * vg.Inch, r.smoothedOverlay},
		{LocationComparison, 14 * vg.Inch, 8 * vg.Inch, r.locationComparison},
		{CorrelationMatrix, 8 * vg.Inch, 6 * vg.Inch, correlationMatrix},
	}
}

func (r *Renderer) dailyCases(res domain.Result) (*plot.Plot, error) {
	p := newTimePlot(fmt.Sprintf("COVID-19 Daily New Cases in %s", res.Location), "Daily New Cases")
	cases, _ := res.Cleaned.Values(domain.ColNewCases)
	if err := addSeries(p, "Daily New Cases", orange, res.Cleaned.Dates(), cases); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Renderer) dailyMetrics(res domain.Result) (*plot.Plot, error) {
	p := newTimePlot(fmt.Sprintf("COVID-19 Daily New Cases, Deaths, Vaccinations in %s", res.Location), "Count")
	dates := res.Cleaned.Dates()
	for _, s := range []struct {
		label  string
		column string
		color  color.Color
	}{
		{"New Cases", domain.ColNewCases, blue},
		{"New Deaths", domain.ColNewDeaths, red},
		{"New Vaccinations", domain.ColNewVaccinations, green},
	} {
		values, _ := res.Cleaned.Values(s.column)
		if err := addSeries(p, s.label, s.color, dates, values); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *Renderer) smoothedOverlay(res domain.Result) (*plot.Plot, error) {
	p := newTimePlot(fmt.Sprintf("COVID-19 %s: Daily vs %d-Day Average", res.Location, r.window), "Count")
	dates := res.Cleaned.Dates()
	for _, s := range []struct {
		label  string
		column string
		color  color.Color
	}{
		{"Daily Cases", domain.ColNewCases, faded(blue)},
		{fmt.Sprintf("%d-day Avg Cases", r.window), domain.ColNewCasesSmoothed, blue},
		{"Daily Deaths", domain.ColNewDeaths, faded(red)},
		{fmt.Sprintf("%d-day Avg Deaths", r.window), domain.ColNewDeathsSmoothed, red},
	} {
		values, _ := res.Cleaned.Values(s.column)
		if err := addSeries(p, s.label, s.color, dates, values); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *Renderer) locationComparison(res domain.Result) (*plot.Plot, error) {
	if len(res.Comparison) == 0 {
		return nil, errNoData
	}
	names := make([]string, len(res.Comparison))
	for i, s := range res.Comparison {
		names[i] = s.Location
	}
	p := newTimePlot(
		fmt.Sprintf("%d-Day Average New Cases: %s", r.window, strings.Join(names, " vs ")),
		fmt.Sprintf("New Cases (%d-day avg)", r.window),
	)
	for i, s := range res.Comparison {
		if err := addSeries(p, s.Location, plotutil.Color(i), s.Dates, s.Smoothed); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// faded returns c at 40% opacity.
func faded(c color.RGBA) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 102}
}
