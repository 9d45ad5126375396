// Package xlsx exports the cleaned subset and its correlation matrix to a spreadsheet.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// CorrelationSheet is the sheet holding the correlation matrix.
const CorrelationSheet = "correlation"

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// Writer saves results as an .xlsx workbook.
// It implements pipeline.Loader.
type Writer struct {
	path string
}

// NewWriter creates a Writer targeting path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "xlsx" }

// Load writes one sheet named after the location with the cleaned rows and,
// when available, a correlation sheet.
func (w *Writer) Load(ctx context.Context, res domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(res.Location)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
	}
	if err := writeTable(f, sheet, res.Cleaned); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
	}

	if res.Correlation != nil {
		if _, err := f.NewSheet(CorrelationSheet); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
		}
		if err := writeCorrelation(f, CorrelationSheet, res.Correlation); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
		}
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, w.path, err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t domain.Table) error {
	header := t.OutputHeader()
	if err := setRow(f, sheet, 1, toCells(header)); err != nil {
		return err
	}
	for i := range t.Rows {
		row := make([]any, len(header))
		for j, col := range header {
			row[j] = cellValue(&t.Rows[i], col, j)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue keeps numeric columns numeric and leaves missing values empty.
func cellValue(o *domain.Observation, col string, idx int) any {
	if v, ok := o.Value(col); ok {
		if domain.IsMissing(v) {
			return nil
		}
		return v
	}
	return o.Cell(col, idx)
}

func writeCorrelation(f *excelize.File, sheet string, m *domain.CorrelationMatrix) error {
	header := append([]any{""}, toCells(m.Columns)...)
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, name := range m.Columns {
		row := []any{name}
		for _, v := range m.Values[i] {
			if domain.IsMissing(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return setRow(f, sheet, len(m.Columns)+3, []any{"complete_rows", m.Rows})
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// SheetName maps a location to a valid sheet name.
func SheetName(location string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(location))
	if name == "" || strings.EqualFold(name, CorrelationSheet) {
		name = "data_" + name
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}
