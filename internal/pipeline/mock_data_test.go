package pipeline_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/chart"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipeline_WithMockDataFiles runs the full job over a synthetic dataset
// on disk with the real file adapters.
func TestPipeline_WithMockDataFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "owid.csv")
	output := filepath.Join(dir, "out", "india.csv")
	workbook := filepath.Join(dir, "out", "india.xlsx")
	charts := filepath.Join(dir, "charts")

	source := scenarioTable(t)
	require.NoError(t, csvfile.Save(input, source, ','))

	opts := testOptions("India", "United States", "Brazil", "Atlantis")
	p, _ := newPipeline(
		csvfile.NewReader(input, ',', slog.Default()),
		opts,
		chart.NewRenderer(charts, "png", opts.Window, slog.Default()),
		csvfile.NewWriter(output, ','),
		xlsx.NewWriter(workbook),
	)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Comparison, 3)

	for _, id := range chart.IDs {
		info, err := os.Stat(filepath.Join(charts, id+".png"))
		require.NoError(t, err, id)
		assert.Positive(t, info.Size(), id)
	}
	_, err = os.Stat(workbook)
	require.NoError(t, err)

	written, err := csvfile.Load(output, ',')
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, source.Header...), domain.SmoothedColumns...), written.Header)
	if diff := cmp.Diff(res.Cleaned.Records(), written.Records()); diff != "" {
		t.Fatalf("output mismatch (-result +file):\n%s", diff)
	}

	for i := range written.Rows {
		row := &written.Rows[i]
		assert.Equal(t, "India", row.Location)
		assert.GreaterOrEqual(t, row.TotalCases, opts.Criteria.MinTotalCases)
		assert.False(t, row.Date.Before(opts.Criteria.MinDate))
		assert.False(t, domain.IsMissing(row.NewCases))
	}
}

func TestPipeline_WithMockDataFiles_SourceAlreadySmoothed(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "owid.csv")
	output := filepath.Join(dir, "india.csv")

	// Sources that already carry the smoothed columns are overwritten in place.
	source := scenarioTable(t)
	source.Header = append(append([]string{}, source.Header...), domain.SmoothedColumns...)
	for i := range source.Rows {
		source.Rows[i].NewCasesSmoothed = -1
		source.Rows[i].NewDeathsSmoothed = -1
	}
	source.Smoothed = true
	require.NoError(t, csvfile.Save(input, source, ';'))

	p, _ := newPipeline(
		csvfile.NewReader(input, ';', slog.Default()),
		testOptions(),
		&mockRenderer{},
		csvfile.NewWriter(output, ';'),
	)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	written, err := csvfile.Load(output, ';')
	require.NoError(t, err)
	assert.Equal(t, source.Header, written.Header)
	assert.True(t, domain.IsMissing(written.Rows[0].NewCasesSmoothed))
	assert.InDelta(t, 90.0, written.Rows[6].NewCasesSmoothed, 1e-9)
}
