package domain

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testIndia  = "India"
	testUS     = "United States"
	testBrazil = "Brazil"
)

var (
	testHeader = []string{"iso_code", ColLocation, ColDate, ColTotalCases, ColNewCases, ColNewDeaths, ColNewVaccinations}
	testStart  = time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)
)

// scenarioRecords builds 30 consecutive days per location. Total cases reach
// 1000 on day 5; new cases on day d are 10*(d+1) plus a per-location offset.
func scenarioRecords(locations ...string) [][]string {
	var records [][]string
	for li, loc := range locations {
		for d := 0; d < 30; d++ {
			total := 100 * d
			if d >= 5 {
				total = 1000 + 50*(d-5)
			}
			records = append(records, []string{
				"X" + strconv.Itoa(li),
				loc,
				testStart.AddDate(0, 0, d).Format(DateLayout),
				strconv.Itoa(total),
				strconv.Itoa(10*(d+1) + 1000*li),
				strconv.Itoa(d),
				strconv.Itoa(3*d + d%4),
			})
		}
	}
	return records
}

func scenarioTable(t *testing.T) Table {
	t.Helper()
	table, err := ParseTable(testHeader, scenarioRecords(testIndia, testUS, testBrazil))
	require.NoError(t, err)
	return table
}

// tableOf builds a single-location table from parallel new_cases and
// new_deaths values on consecutive days.
func tableOf(cases, deaths []float64) Table {
	rows := make([]Observation, len(cases))
	for i := range cases {
		rows[i] = Observation{
			Location:          testIndia,
			Date:              testStart.AddDate(0, 0, i),
			TotalCases:        1000,
			NewCases:          cases[i],
			NewDeaths:         deaths[i],
			NewVaccinations:   Missing(),
			NewCasesSmoothed:  Missing(),
			NewDeathsSmoothed: Missing(),
			Line:              i + 2,
		}
	}
	return Table{Header: testHeader, Rows: rows}
}

func nan() float64 { return Missing() }
