// Command genmock writes a deterministic synthetic COVID-19 dataset in the
// same column layout as the OWID export, for demos and local runs of the ETL.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/owid-covid-data.csv \
//	  -days 400 -start 2020-03-01 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

var header = []string{
	"iso_code", "continent", "location", domain.ColDate,
	domain.ColTotalCases, domain.ColNewCases, domain.ColNewDeaths, domain.ColNewVaccinations,
	"population",
}

// locationDef shapes the synthetic epidemic curve of one location.
type locationDef struct {
	iso        string
	continent  string
	name       string
	population int
	peak       float64 // daily cases at the top of the first wave
	cfr        float64 // deaths per case
	vaxStart   int     // day index vaccinations begin
	vaxPerDay  float64
}

var defaultLocations = []locationDef{
	{"IND", "Asia", "India", 1_380_004_385, 90_000, 0.013, 320, 2_500_000},
	{"USA", "North America", "United States", 331_002_647, 70_000, 0.017, 290, 1_800_000},
	{"BRA", "South America", "Brazil", 212_559_409, 45_000, 0.028, 325, 700_000},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/owid-covid-data.csv", "output path for the synthetic dataset")
	days := flag.Int("days", 400, "number of days per location")
	startStr := flag.String("start", "2020-03-01", "first date (YYYY-MM-DD)")
	seed := flag.Uint64("seed", 42, "random seed")
	missing := flag.Float64("missing", 0.02, "fraction of new_cases cells left empty")
	flag.Parse()

	start, err := time.Parse(domain.DateLayout, *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	var records [][]string //nolint:prealloc // size depends on flags
	for _, def := range defaultLocations {
		recs := generate(def, start, *days, *missing, rng)
		records = append(records, recs...)
		log.Printf("%s: %d rows", def.name, len(recs))
	}

	table, err := domain.ParseTable(header, records)
	if err != nil {
		return fmt.Errorf("parse generated rows: %w", err)
	}
	if err := csvfile.Save(*out, table, ','); err != nil {
		return err
	}
	log.Printf("wrote %d rows: %s", table.Len(), *out)

	printStats(table)
	return nil
}

// generate produces one row per day. Daily cases follow two overlapping
// waves with multiplicative noise; totals are cumulative.
func generate(def locationDef, start time.Time, days int, missing float64, rng *rand.Rand) [][]string {
	recs := make([][]string, 0, days)
	total := 0.0
	for d := 0; d < days; d++ {
		wave := def.peak*math.Exp(-math.Pow(float64(d-180)/45, 2)) +
			0.6*def.peak*math.Exp(-math.Pow(float64(d-380)/30, 2)) +
			20*float64(d)
		cases := math.Round(wave * (0.85 + 0.3*rng.Float64()))
		deaths := math.Round(cases * def.cfr * (0.8 + 0.4*rng.Float64()))
		total += cases

		newCases := strconv.FormatFloat(cases, 'f', -1, 64)
		if rng.Float64() < missing {
			newCases = ""
		}
		vax := ""
		if d >= def.vaxStart {
			ramp := math.Min(1, float64(d-def.vaxStart)/60)
			vax = strconv.FormatFloat(math.Round(def.vaxPerDay*ramp*(0.9+0.2*rng.Float64())), 'f', -1, 64)
		}

		recs = append(recs, []string{
			def.iso,
			def.continent,
			def.name,
			start.AddDate(0, 0, d).Format(domain.DateLayout),
			strconv.FormatFloat(total, 'f', -1, 64),
			newCases,
			strconv.FormatFloat(deaths, 'f', -1, 64),
			vax,
			strconv.Itoa(def.population),
		})
	}
	return recs
}

// printStats reports the counts the default job configuration will see.
func printStats(table domain.Table) {
	criteria := domain.Criteria{
		Location:      "India",
		MinTotalCases: 1000,
		MinDate:       time.Date(2020, time.April, 8, 0, 0, 0, 0, time.UTC),
	}

	fmt.Println("\n=== Stats for the default job ===")
	fmt.Printf("Total rows: %d\n", table.Len())
	for _, loc := range table.Locations() {
		subset := domain.ForLocation(table, loc)
		cases, _ := subset.Values(domain.ColNewCases)
		vax, _ := subset.Values(domain.ColNewVaccinations)
		fmt.Printf("%s: rows=%d missing_new_cases=%d missing_vaccinations=%d\n",
			loc, subset.Len(), countMissing(cases), countMissing(vax))
	}

	matched := domain.Filter(table, criteria).Len()
	cleaned, err := domain.Select(table, criteria)
	if err != nil {
		fmt.Printf("India subset: %v\n", err)
		return
	}
	fmt.Printf("India subset: matched=%d cleaned=%d gaps=%d\n", matched, cleaned.Len(), domain.DateGaps(cleaned))
	if m, err := domain.Correlate(cleaned); err == nil {
		fmt.Printf("Correlation rows: %d\n", m.Rows)
	}
}

func countMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if domain.IsMissing(v) {
			n++
		}
	}
	return n
}
