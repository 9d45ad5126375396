package csvfile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `iso_code,continent,location,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations
IND,Asia,India,2020-04-07,900,100,5,
IND,Asia,India,2020-04-08,1100,200,6,
IND,Asia,India,2020-04-09,1300,,7,NA
IND,Asia,India,2020-04-10,1600,300,8,12
BRA,South America,Brazil,2020-04-08,2000,150,9,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeFile(t, "owid.csv", sampleCSV), ',')
	require.NoError(t, err)

	require.Equal(t, 5, table.Len())
	assert.Equal(t, []string{"India", "Brazil"}, table.Locations())
	assert.Equal(t, "continent", table.Header[1])

	row := table.Rows[2]
	assert.Equal(t, 4, row.Line)
	assert.Equal(t, time.Date(2020, time.April, 9, 0, 0, 0, 0, time.UTC), row.Date)
	assert.True(t, domain.IsMissing(row.NewCases))
	assert.True(t, domain.IsMissing(row.NewVaccinations))
	assert.Equal(t, "Asia", row.Fields[1])
	assert.Equal(t, "NA", row.Fields[7])
	assert.False(t, table.Smoothed)
}

func TestLoad_Delimiter(t *testing.T) {
	content := strings.ReplaceAll(sampleCSV, ",", ";")
	table, err := Load(writeFile(t, "owid.csv", content), ';')
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
}

func TestLoad_ByteOrderMark(t *testing.T) {
	content := "\ufefflocation,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations\n" +
		"India,2020-04-08,1100,200,6,\n"
	table, err := Load(writeFile(t, "owid.csv", content), ',')
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, "location", table.Header[0])
	assert.Equal(t, "India", table.Rows[0].Location)
}

func TestLoad_KeepsHeaderNames(t *testing.T) {
	content := "location,note,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations,note,\n" +
		"India,a,2020-04-08,1100,200,6,,b,c\n"
	in := writeFile(t, "owid.csv", content)

	table, err := Load(in, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"location", "note", "last_updated_date", "total_cases",
		"new_cases", "new_deaths", "new_vaccinations", "note", ""}, table.Header)

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Save(out, table, ','))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"header only", "location,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations\n", domain.ErrLoad},
		{"empty file", "", domain.ErrLoad},
		{"ragged row", "location,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations\nIndia,2020-04-08,1\n", domain.ErrLoad},
		{"missing column", "location,last_updated_date,total_cases,new_cases,new_deaths\nIndia,2020-04-08,1,2,3\n", domain.ErrMissingColumn},
		{"bad number", "location,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations\nIndia,2020-04-08,lots,2,3,4\n", domain.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "in.csv", tt.content), ',')
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), ',')
	require.ErrorIs(t, err, domain.ErrLoad)
	assert.Contains(t, err.Error(), "absent.csv")
}

func TestSave_RoundTrip(t *testing.T) {
	table, err := Load(writeFile(t, "owid.csv", sampleCSV), ',')
	require.NoError(t, err)

	subset, err := domain.Select(table, domain.Criteria{
		Location:      "India",
		MinTotalCases: 1000,
		MinDate:       time.Date(2020, time.April, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	smoothed, err := domain.Smooth(subset, 2, domain.RollingRows)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "nested", "clean.csv")
	require.NoError(t, Save(out, smoothed, ','))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "iso_code,continent,location,last_updated_date,total_cases,new_cases,new_deaths,new_vaccinations,new_cases_smoothed,new_deaths_smoothed", lines[0])
	assert.Equal(t, "IND,Asia,India,2020-04-08,1100,200,6,,,", lines[1])
	assert.Equal(t, "IND,Asia,India,2020-04-10,1600,300,8,12,250,7", lines[2])

	reloaded, err := Load(out, ',')
	require.NoError(t, err)
	assert.True(t, reloaded.Smoothed)
	if diff := cmp.Diff(smoothed.Records(), reloaded.Records()); diff != "" {
		t.Errorf("round trip mismatch (-saved +reloaded):\n%s", diff)
	}
}

func TestSave_Unwritable(t *testing.T) {
	dir := t.TempDir()
	err := Save(dir, domain.Table{Header: []string{"location"}}, ',')
	require.ErrorIs(t, err, domain.ErrWrite)
}

func TestReaderWriter(t *testing.T) {
	in := writeFile(t, "owid.csv", sampleCSV)
	out := filepath.Join(t.TempDir(), "out.csv")

	table, err := NewReader(in, ',', slog.Default()).Extract(context.Background())
	require.NoError(t, err)

	w := NewWriter(out, ';')
	assert.Equal(t, "csv", w.Name())
	require.NoError(t, w.Load(context.Background(), domain.Result{Location: "India", Cleaned: table}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "iso_code;continent;location;"))
}

func TestReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader("unused.csv", ',', slog.Default()).Extract(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
