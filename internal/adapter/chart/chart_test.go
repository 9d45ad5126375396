package chart

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)

func testResult(t *testing.T) domain.Result {
	t.Helper()
	header := []string{domain.ColLocation, domain.ColDate, domain.ColTotalCases,
		domain.ColNewCases, domain.ColNewDeaths, domain.ColNewVaccinations}

	var records [][]string
	for _, loc := range []string{"India", "Brazil"} {
		for d := 0; d < 20; d++ {
			vacc := strconv.Itoa(50*d + d%3)
			if d == 4 {
				vacc = ""
			}
			records = append(records, []string{
				loc,
				start.AddDate(0, 0, d).Format(domain.DateLayout),
				strconv.Itoa(2000 + 100*d),
				strconv.Itoa(100 + 7*d + d%5),
				strconv.Itoa(d % 6),
				vacc,
			})
		}
	}
	table, err := domain.ParseTable(header, records)
	require.NoError(t, err)

	subset, err := domain.Select(table, domain.Criteria{Location: "India", MinTotalCases: 1000, MinDate: start})
	require.NoError(t, err)
	cleaned, err := domain.Smooth(subset, 7, domain.RollingRows)
	require.NoError(t, err)
	comparison, _, err := domain.CompareLocations(table, []string{"India", "Brazil"}, 7, domain.RollingRows)
	require.NoError(t, err)
	corr, err := domain.Correlate(cleaned, domain.CorrelationColumns...)
	require.NoError(t, err)

	return domain.Result{Location: "India", Cleaned: cleaned, Comparison: comparison, Correlation: &corr}
}

func TestRenderer_RendersAllCharts(t *testing.T) {
	for _, format := range []string{"png", "svg", "pdf"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "charts")
			r := NewRenderer(dir, format, 7, slog.Default())

			paths, err := r.Render(context.Background(), testResult(t))
			require.NoError(t, err)
			require.Len(t, paths, len(IDs))

			for i, id := range IDs {
				assert.Equal(t, filepath.Join(dir, id+"."+format), paths[i])
				info, err := os.Stat(paths[i])
				require.NoError(t, err)
				assert.Positive(t, info.Size())
			}
		})
	}
}

func TestRenderer_SkipsChartsWithoutData(t *testing.T) {
	res := testResult(t)
	res.Comparison = nil
	res.Correlation = nil

	r := NewRenderer(t.TempDir(), "png", 7, slog.Default())
	paths, err := r.Render(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, []string{r.Path(DailyCases), r.Path(DailyMetrics), r.Path(SmoothedOverlay)}, paths)
	_, err = os.Stat(r.Path(CorrelationMatrix))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRenderer(t.TempDir(), "png", 7, slog.Default())
	paths, err := r.Render(ctx, testResult(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}

func TestSegments_BreakAtMissing(t *testing.T) {
	nan := math.NaN()
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	segs := segments(dates, []float64{nan, 1, 2, nan, nan, 5, nan})
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 2)
	assert.Len(t, segs[1], 1)
	assert.InDelta(t, float64(dates[1].Unix()), segs[0][0].X, 0)
	assert.InDelta(t, 5.0, segs[1][0].Y, 0)

	assert.Empty(t, segments(dates, []float64{nan, nan}))
}

func TestCorrGrid_TopRowIsFirstColumn(t *testing.T) {
	m := &domain.CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values:  [][]float64{{1, 0.5}, {0.5, 1}},
	}
	g := corrGrid{m: m}

	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, "a", g.label(1))
	assert.Equal(t, "b", g.label(0))
	assert.InDelta(t, 0.5, g.Z(1, 1), 0)
	assert.Equal(t, "n/a", annotation(math.NaN()))
	assert.Equal(t, "-0.25", annotation(-0.25))
}
