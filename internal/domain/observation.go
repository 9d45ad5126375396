package domain

import (
	"math"
	"strconv"
	"time"
)

// Column names used by the pipeline.
const (
	ColLocation          = "location"
	ColDate              = "last_updated_date"
	ColTotalCases        = "total_cases"
	ColNewCases          = "new_cases"
	ColNewDeaths         = "new_deaths"
	ColNewVaccinations   = "new_vaccinations"
	ColNewCasesSmoothed  = "new_cases_smoothed"
	ColNewDeathsSmoothed = "new_deaths_smoothed"
)

// DateLayout is the canonical date format for output.
const DateLayout = "2006-01-02"

// RequiredColumns lists the columns every input must contain.
var RequiredColumns = []string{
	ColLocation,
	ColDate,
	ColTotalCases,
	ColNewCases,
	ColNewDeaths,
	ColNewVaccinations,
}

// SmoothedColumns lists the derived columns appended by Smooth.
var SmoothedColumns = []string{ColNewCasesSmoothed, ColNewDeathsSmoothed}

// Observation is one row of the dataset, keyed by (Location, Date).
// Numeric fields hold NaN when the value is missing.
type Observation struct {
	Location        string
	Date            time.Time
	TotalCases      float64
	NewCases        float64
	NewDeaths       float64
	NewVaccinations float64

	NewCasesSmoothed  float64
	NewDeathsSmoothed float64

	// Line is the 1-based line number in the source file (header is line 1).
	Line int
	// Fields holds the raw cell text aligned with Table.Header.
	Fields []string
}

// Table is an ordered set of observations sharing a header.
// Operations return new tables and leave their input unchanged.
type Table struct {
	Header []string
	Rows   []Observation
	// Smoothed is set once the derived columns hold computed values.
	Smoothed bool
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// withRows returns a table sharing t's header with the given rows.
func (t Table) withRows(rows []Observation) Table {
	return Table{Header: t.Header, Rows: rows, Smoothed: t.Smoothed}
}

// OutputHeader returns the header to write: the source header, plus the
// smoothed columns when t is smoothed and the source lacked them.
func (t Table) OutputHeader() []string {
	out := append([]string(nil), t.Header...)
	if !t.Smoothed {
		return out
	}
	for _, col := range SmoothedColumns {
		if !t.HasColumn(col) {
			out = append(out, col)
		}
	}
	return out
}

// Records renders every row aligned with OutputHeader.
func (t Table) Records() [][]string {
	header := t.OutputHeader()
	out := make([][]string, len(t.Rows))
	for i := range t.Rows {
		rec := make([]string, len(header))
		for j, col := range header {
			rec[j] = t.Rows[i].Cell(col, j)
		}
		out[i] = rec
	}
	return out
}

// Dates returns the date of every row in order.
func (t Table) Dates() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Rows[i].Date
	}
	return out
}

// Values returns the numeric column with the given name, in row order.
// It returns false for non-numeric or unknown columns.
func (t Table) Values(column string) ([]float64, bool) {
	if !IsNumericColumn(column) {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i], _ = t.Rows[i].Value(column)
	}
	return out, true
}

// HasColumn reports whether the header contains name.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the header position of name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Locations returns the distinct locations in first-seen order.
func (t Table) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range t.Rows {
		loc := t.Rows[i].Location
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out
}

// IsNumericColumn reports whether name is one of the typed numeric columns.
func IsNumericColumn(name string) bool {
	switch name {
	case ColTotalCases, ColNewCases, ColNewDeaths, ColNewVaccinations,
		ColNewCasesSmoothed, ColNewDeathsSmoothed:
		return true
	}
	return false
}

// IsTypedColumn reports whether name is parsed into an Observation field
// rather than carried as raw text.
func IsTypedColumn(name string) bool {
	return name == ColLocation || name == ColDate || IsNumericColumn(name)
}

// Value returns the numeric field for column.
func (o *Observation) Value(column string) (float64, bool) {
	switch column {
	case ColTotalCases:
		return o.TotalCases, true
	case ColNewCases:
		return o.NewCases, true
	case ColNewDeaths:
		return o.NewDeaths, true
	case ColNewVaccinations:
		return o.NewVaccinations, true
	case ColNewCasesSmoothed:
		return o.NewCasesSmoothed, true
	case ColNewDeathsSmoothed:
		return o.NewDeathsSmoothed, true
	}
	return Missing(), false
}

// Cell renders the value of column as it appears in output files.
// Typed columns are formatted from the parsed value; other columns return
// the raw text at header position idx.
func (o *Observation) Cell(column string, idx int) string {
	switch column {
	case ColLocation:
		return o.Location
	case ColDate:
		return o.Date.Format(DateLayout)
	}
	if v, ok := o.Value(column); ok {
		return FormatValue(v)
	}
	if idx >= 0 && idx < len(o.Fields) {
		return o.Fields[idx]
	}
	return ""
}

// Missing returns the sentinel for a missing numeric value.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// FormatValue renders v in shortest form, or "" when missing.
func FormatValue(v float64) string {
	if IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ObservationRecord is the JSON form of an Observation. Missing values are null.
type ObservationRecord struct {
	Location          string    `json:"location"`
	Date              string    `json:"date"`
	TotalCases        *float64  `json:"total_cases"`
	NewCases          *float64  `json:"new_cases"`
	NewDeaths         *float64  `json:"new_deaths"`
	NewVaccinations   *float64  `json:"new_vaccinations"`
	NewCasesSmoothed  *float64  `json:"new_cases_smoothed"`
	NewDeathsSmoothed *float64  `json:"new_deaths_smoothed"`
	ProcessedAt       time.Time `json:"processed_at"`
}

// Key identifies the observation by location and date.
func (o *Observation) Key() string {
	return o.Location + "|" + o.Date.Format(DateLayout)
}

// Record converts o to its JSON form, stamped with the current clock time.
func (o *Observation) Record() ObservationRecord {
	return ObservationRecord{
		Location:          o.Location,
		Date:              o.Date.Format(DateLayout),
		TotalCases:        nullable(o.TotalCases),
		NewCases:          nullable(o.NewCases),
		NewDeaths:         nullable(o.NewDeaths),
		NewVaccinations:   nullable(o.NewVaccinations),
		NewCasesSmoothed:  nullable(o.NewCasesSmoothed),
		NewDeathsSmoothed: nullable(o.NewDeathsSmoothed),
		ProcessedAt:       clock.Now().UTC(),
	}
}

func nullable(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}
