// Command validate checks a cleaned output file against the input it was
// produced from: filter predicates, row counts and ordering, rolling means,
// and value parity with the source rows.
//
// Flags default to the same environment variables the ETL reads.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input data/owid-covid-data.csv \
//	  -output data/covid-cleaned.csv \
//	  -location India -threshold 1000 -min-date 2020-04-08
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// tolerance for comparing recomputed rolling means with written values.
const tolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	input, output string
	delimiter     rune
	criteria      domain.Criteria
	window        int
	mode          domain.RollingMode
}

func main() {
	input := flag.String("input", sharedcfg.EnvOrDefault("INPUT_PATH", "data/owid-covid-data.csv"), "source dataset")
	output := flag.String("output", sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/covid-cleaned.csv"), "cleaned output to validate")
	location := flag.String("location", sharedcfg.EnvOrDefault("TARGET_LOCATION", "India"), "target location")
	threshold := flag.Float64("threshold", envFloat("CASE_THRESHOLD", 1000), "minimum total_cases")
	minDate := flag.String("min-date", sharedcfg.EnvOrDefault("MIN_DATE", "2020-04-08"), "minimum date (YYYY-MM-DD)")
	window := flag.Int("window", int(envFloat("ROLLING_WINDOW", domain.DefaultWindow)), "rolling window")
	mode := flag.String("mode", sharedcfg.EnvOrDefault("ROLLING_MODE", string(domain.RollingRows)), "rolling mode: rows or calendar")
	delimiter := flag.String("delimiter", sharedcfg.EnvOrDefault("CSV_DELIMITER", ","), "field delimiter")
	flag.Parse()

	opts, err := buildOptions(*input, *output, *location, *threshold, *minDate, *window, *mode, *delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, strconv.FormatFloat(def, 'f', -1, 64)), 64)
	if err != nil {
		return def
	}
	return v
}

func buildOptions(input, output, location string, threshold float64, minDate string, window int, mode, delimiter string) (options, error) {
	date, err := time.Parse(domain.DateLayout, minDate)
	if err != nil {
		return options{}, fmt.Errorf("invalid -min-date %q", minDate)
	}
	m, err := domain.ParseRollingMode(mode)
	if err != nil {
		return options{}, err
	}
	if window <= 0 {
		return options{}, fmt.Errorf("invalid -window %d", window)
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return options{}, fmt.Errorf("invalid -delimiter %q", delimiter)
	}
	d, _ := utf8.DecodeRuneInString(delimiter)
	return options{
		input:     input,
		output:    output,
		delimiter: d,
		criteria:  domain.Criteria{Location: location, MinTotalCases: threshold, MinDate: date},
		window:    window,
		mode:      m,
	}, nil
}

func run(opts options) int {
	fmt.Println("=== COVID Data Integrity Validation ===")
	fmt.Println()

	source, err := csvfile.Load(opts.input, opts.delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load input: %v\n", err)
		return 1
	}
	written, err := csvfile.Load(opts.output, opts.delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load output: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFilter(written, opts.criteria),
		validateRows(written, source, opts.criteria),
		validateRolling(written, opts.window, opts.mode),
		validateParity(written, source),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d input, %d output\n", source.Len(), written.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateFilter checks every output row satisfies the selection predicates.
func validateFilter(written domain.Table, c domain.Criteria) *phase {
	p := &phase{name: "Phase 1: Filter predicates"}
	for i := range written.Rows {
		row := &written.Rows[i]
		if !c.Matches(row) {
			p.errorf("line %d: %s %s total_cases=%s does not match filter",
				row.Line, row.Location, row.Date.Format(domain.DateLayout), domain.FormatValue(row.TotalCases))
		}
		if domain.IsMissing(row.NewCases) {
			p.errorf("line %d: new_cases is missing", row.Line)
		}
	}
	return p
}

// validateRows checks the output row count against a fresh selection of the
// input and that dates are unique and ascending.
func validateRows(written, source domain.Table, c domain.Criteria) *phase {
	p := &phase{name: "Phase 2: Row counts and ordering"}
	expected, err := domain.Select(source, c)
	if err != nil {
		p.errorf("select from input: %v", err)
		return p
	}
	if expected.Len() != written.Len() {
		p.errorf("row count: input selects %d, output has %d", expected.Len(), written.Len())
	}
	if err := domain.CheckAscending(written); err != nil {
		p.errorf("%v", err)
	}
	for _, col := range domain.SmoothedColumns {
		if !written.HasColumn(col) {
			p.errorf("output lacks column %q", col)
		}
	}
	return p
}

// validateRolling recomputes both rolling means from the output itself.
func validateRolling(written domain.Table, window int, mode domain.RollingMode) *phase {
	p := &phase{name: "Phase 3: Rolling means"}
	if !written.Smoothed {
		p.errorf("output has no smoothed columns")
		return p
	}
	for _, pair := range [][2]string{
		{domain.ColNewCases, domain.ColNewCasesSmoothed},
		{domain.ColNewDeaths, domain.ColNewDeathsSmoothed},
	} {
		want, err := domain.RollingSeries(written, pair[0], window, mode)
		if err != nil {
			p.errorf("recompute %s: %v", pair[1], err)
			continue
		}
		got, _ := written.Values(pair[1])
		for i := range want {
			if !sameValue(want[i], got[i]) {
				p.errorf("line %d: %s = %s, want %s",
					written.Rows[i].Line, pair[1], domain.FormatValue(got[i]), domain.FormatValue(want[i]))
			}
		}
	}
	return p
}

// validateParity checks every output row carries the same values as the
// input row with the same location and date.
func validateParity(written, source domain.Table) *phase {
	p := &phase{name: "Phase 4: Source parity"}
	byKey := make(map[string]*domain.Observation, source.Len())
	for i := range source.Rows {
		byKey[source.Rows[i].Key()] = &source.Rows[i]
	}

	for i := range written.Rows {
		out := &written.Rows[i]
		in, ok := byKey[out.Key()]
		if !ok {
			p.errorf("line %d: %s not present in input", out.Line, out.Key())
			continue
		}
		for _, col := range domain.RequiredColumns {
			a, isNum := in.Value(col)
			if !isNum {
				continue
			}
			b, _ := out.Value(col)
			if !sameValue(a, b) {
				p.errorf("line %d: %s %s = %s, input has %s",
					out.Line, out.Key(), col, domain.FormatValue(b), domain.FormatValue(a))
			}
		}
		for j, col := range source.Header {
			if domain.IsTypedColumn(col) {
				continue
			}
			k := written.ColumnIndex(col)
			if k < 0 {
				p.errorf("output lacks input column %q", col)
				return p
			}
			if in.Cell(col, j) != out.Cell(col, k) {
				p.errorf("line %d: %s %s = %q, input has %q",
					out.Line, out.Key(), col, out.Cell(col, k), in.Cell(col, j))
			}
		}
	}
	return p
}

func sameValue(a, b float64) bool {
	if domain.IsMissing(a) || domain.IsMissing(b) {
		return domain.IsMissing(a) && domain.IsMissing(b)
	}
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(a))
}
