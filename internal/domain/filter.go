package domain

import (
	"fmt"
	"time"
)

// Criteria selects the working subset of a table.
type Criteria struct {
	Location      string
	MinTotalCases float64
	MinDate       time.Time
}

// Matches reports whether o satisfies every predicate. A missing total case
// count never matches.
func (c Criteria) Matches(o *Observation) bool {
	if o.Location != c.Location {
		return false
	}
	if IsMissing(o.TotalCases) || o.TotalCases < c.MinTotalCases {
		return false
	}
	return !o.Date.Before(c.MinDate)
}

// Filter returns the rows of t matching c, preserving order.
func Filter(t Table, c Criteria) Table {
	rows := make([]Observation, 0)
	for i := range t.Rows {
		if c.Matches(&t.Rows[i]) {
			rows = append(rows, t.Rows[i])
		}
	}
	return t.withRows(rows)
}

// ForLocation returns every row of t for location, preserving order.
func ForLocation(t Table, location string) Table {
	rows := make([]Observation, 0)
	for i := range t.Rows {
		if t.Rows[i].Location == location {
			rows = append(rows, t.Rows[i])
		}
	}
	return t.withRows(rows)
}

// DropMissing returns the rows of t whose value in column is present.
// The result never has more rows than t.
func DropMissing(t Table, column string) (Table, error) {
	if !IsNumericColumn(column) {
		return Table{}, fmt.Errorf("%w: %q is not numeric", ErrMissingColumn, column)
	}
	rows := make([]Observation, 0, len(t.Rows))
	for i := range t.Rows {
		if v, _ := t.Rows[i].Value(column); !IsMissing(v) {
			rows = append(rows, t.Rows[i])
		}
	}
	return t.withRows(rows), nil
}

// Select applies c and then drops rows missing new_cases. It returns
// ErrEmptySubset when nothing remains.
func Select(t Table, c Criteria) (Table, error) {
	subset := Filter(t, c)
	if subset.Len() == 0 {
		return Table{}, fmt.Errorf("%w: no rows for location %q with total_cases >= %g since %s",
			ErrEmptySubset, c.Location, c.MinTotalCases, c.MinDate.Format(DateLayout))
	}
	cleaned, err := DropMissing(subset, ColNewCases)
	if err != nil {
		return Table{}, err
	}
	if cleaned.Len() == 0 {
		return Table{}, fmt.Errorf("%w: every row for location %q is missing %s",
			ErrEmptySubset, c.Location, ColNewCases)
	}
	return cleaned, nil
}
