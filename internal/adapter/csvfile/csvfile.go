// Package csvfile reads and writes the dataset as delimited text.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
)

// utf8BOM is stripped from the start of the file; spreadsheet exports on
// Windows commonly carry one.
var utf8BOM = []byte("\ufeff")

// Load reads the delimited file at path into a Table. Every column is kept as
// raw text before the domain parser types the required ones.
func Load(path string, delimiter rune) (domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %s: %w", domain.ErrLoad, path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
		dataframe.WithDelimiter(delimiter),
	)
	if df.Err != nil {
		return domain.Table{}, fmt.Errorf("%w: %s: %w", domain.ErrLoad, path, df.Err)
	}
	if df.Nrow() == 0 {
		return domain.Table{}, fmt.Errorf("%w: %s: no data rows", domain.ErrLoad, path)
	}

	// gota renames blank and duplicate column names, so the header comes
	// from the file itself.
	header, err := readHeader(data, delimiter)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %s: %w", domain.ErrLoad, path, err)
	}
	records := df.Records()
	if len(header) != len(records[0]) {
		return domain.Table{}, fmt.Errorf("%w: %s: header has %d fields, parsed %d columns",
			domain.ErrLoad, path, len(header), len(records[0]))
	}
	return domain.ParseTable(header, records[1:])
}

func readHeader(data []byte, delimiter rune) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	return r.Read()
}

// Save writes t to path with a header row and no index column, replacing any
// existing file.
func Save(path string, t domain.Table, delimiter rune) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = delimiter
	if err := w.Write(t.OutputHeader()); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	if err := w.WriteAll(t.Records()); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	return nil
}

// Reader loads the configured input file.
// It implements pipeline.Extractor.
type Reader struct {
	path      string
	delimiter rune
	logger    *slog.Logger
}

// NewReader creates a Reader for path.
func NewReader(path string, delimiter rune, logger *slog.Logger) *Reader {
	return &Reader{path: path, delimiter: delimiter, logger: logger}
}

// Extract loads and parses the input file.
func (r *Reader) Extract(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	t, err := Load(r.path, r.delimiter)
	if err != nil {
		return domain.Table{}, err
	}
	r.logger.Info("dataset loaded",
		"path", r.path,
		"rows", t.Len(),
		"columns", len(t.Header),
		"locations", len(t.Locations()),
	)
	return t, nil
}

// Writer saves the cleaned subset.
// It implements pipeline.Loader.
type Writer struct {
	path      string
	delimiter rune
}

// NewWriter creates a Writer targeting path.
func NewWriter(path string, delimiter rune) *Writer {
	return &Writer{path: path, delimiter: delimiter}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// Load writes the cleaned table of res.
func (w *Writer) Load(ctx context.Context, res domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Save(w.path, res.Cleaned, w.delimiter)
}
