package domain

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the rolling window used when none is configured.
const DefaultWindow = 7

// RollingMode selects how a rolling window is bounded.
type RollingMode string

const (
	// RollingRows spans the previous window rows regardless of dates.
	RollingRows RollingMode = "rows"
	// RollingCalendar is only defined when the window rows are consecutive days.
	RollingCalendar RollingMode = "calendar"
)

// ParseRollingMode validates a mode name.
func ParseRollingMode(s string) (RollingMode, error) {
	switch m := RollingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RollingRows, RollingCalendar:
		return m, nil
	}
	return "", fmt.Errorf("unknown rolling mode %q", s)
}

// RollingMean returns the trailing simple moving average of values.
// Position i holds the mean of values[i-window+1 : i+1]. Positions before
// window-1, and any window containing a missing value, are missing.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = Missing()
	}
	if window <= 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasMissing(w) {
			continue
		}
		out[i] = stat.Mean(w, nil)
	}
	return out
}

func hasMissing(values []float64) bool {
	for _, v := range values {
		if IsMissing(v) {
			return true
		}
	}
	return false
}

// CheckAscending returns ErrUnsorted unless dates are strictly increasing.
func CheckAscending(t Table) error {
	for i := 1; i < len(t.Rows); i++ {
		prev, cur := &t.Rows[i-1], &t.Rows[i]
		if !cur.Date.After(prev.Date) {
			return fmt.Errorf("%w: %s %s (line %d) follows %s (line %d)",
				ErrUnsorted, cur.Location, cur.Date.Format(DateLayout), cur.Line,
				prev.Date.Format(DateLayout), prev.Line)
		}
	}
	return nil
}

// DateGaps counts adjacent rows more than one day apart.
func DateGaps(t Table) int {
	gaps := 0
	for i := 1; i < len(t.Rows); i++ {
		if daysBetween(&t.Rows[i-1], &t.Rows[i]) > 1 {
			gaps++
		}
	}
	return gaps
}

func daysBetween(a, b *Observation) int {
	return int(b.Date.Sub(a.Date).Hours() / 24)
}

// RollingSeries computes the rolling mean of column over t in the given mode.
// t must be strictly date-ascending.
func RollingSeries(t Table, column string, window int, mode RollingMode) ([]float64, error) {
	if err := CheckAscending(t); err != nil {
		return nil, err
	}
	values, ok := t.Values(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrMissingColumn, column)
	}

	out := RollingMean(values, window)
	if mode == RollingCalendar {
		// Strictly ascending dates span exactly window-1 days only when consecutive.
		for i := window - 1; i < len(out); i++ {
			if daysBetween(&t.Rows[i-window+1], &t.Rows[i]) != window-1 {
				out[i] = Missing()
			}
		}
	}
	return out, nil
}

// Smooth returns a copy of t with new_cases_smoothed and new_deaths_smoothed
// set to the rolling means of new_cases and new_deaths.
func Smooth(t Table, window int, mode RollingMode) (Table, error) {
	if window <= 0 {
		return Table{}, fmt.Errorf("rolling window must be positive, got %d", window)
	}
	cases, err := RollingSeries(t, ColNewCases, window, mode)
	if err != nil {
		return Table{}, err
	}
	deaths, err := RollingSeries(t, ColNewDeaths, window, mode)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Observation, len(t.Rows))
	copy(rows, t.Rows)
	for i := range rows {
		rows[i].NewCasesSmoothed = cases[i]
		rows[i].NewDeathsSmoothed = deaths[i]
	}
	out := t.withRows(rows)
	out.Smoothed = true
	return out, nil
}
