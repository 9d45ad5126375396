package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// CheckSchema returns ErrMissingColumn for the first required column absent
// from header.
func CheckSchema(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	return nil
}

// ParseTable checks the header and converts raw records into a Table.
// Each record must be aligned with header. Smoothed columns are parsed when
// present and left missing otherwise.
func ParseTable(header []string, records [][]string) (Table, error) {
	if err := CheckSchema(header); err != nil {
		return Table{}, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	rows := make([]Observation, 0, len(records))
	for i, rec := range records {
		line := i + 2
		if len(rec) != len(header) {
			return Table{}, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrInvalidValue, line, len(rec), len(header))
		}
		obs, err := parseObservation(idx, rec, line)
		if err != nil {
			return Table{}, err
		}
		rows = append(rows, obs)
	}

	smoothed := true
	for _, col := range SmoothedColumns {
		if _, ok := idx[col]; !ok {
			smoothed = false
		}
	}
	return Table{Header: header, Rows: rows, Smoothed: smoothed}, nil
}

func parseObservation(idx map[string]int, rec []string, line int) (Observation, error) {
	obs := Observation{
		Location:          rec[idx[ColLocation]],
		NewCasesSmoothed:  Missing(),
		NewDeathsSmoothed: Missing(),
		Line:              line,
		Fields:            rec,
	}

	date, err := ParseDate(rec[idx[ColDate]])
	if err != nil {
		return Observation{}, fmt.Errorf("%w: line %d column %q: %q",
			ErrInvalidValue, line, ColDate, rec[idx[ColDate]])
	}
	obs.Date = date

	targets := []struct {
		col string
		dst *float64
	}{
		{ColTotalCases, &obs.TotalCases},
		{ColNewCases, &obs.NewCases},
		{ColNewDeaths, &obs.NewDeaths},
		{ColNewVaccinations, &obs.NewVaccinations},
		{ColNewCasesSmoothed, &obs.NewCasesSmoothed},
		{ColNewDeathsSmoothed, &obs.NewDeathsSmoothed},
	}
	for _, tgt := range targets {
		i, ok := idx[tgt.col]
		if !ok {
			continue
		}
		v, err := ParseValue(rec[i])
		if err != nil {
			return Observation{}, fmt.Errorf("%w: line %d column %q: %q",
				ErrInvalidValue, line, tgt.col, rec[i])
		}
		*tgt.dst = v
	}

	return obs, nil
}

// ParseDate parses s as a calendar date and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseValue parses a numeric cell. Empty cells and NA sentinels are missing.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return Missing(), nil
	}
	return strconv.ParseFloat(s, 64)
}
