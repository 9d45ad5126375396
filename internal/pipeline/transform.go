package pipeline

import (
	"errors"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Options configures the analysis stages.
type Options struct {
	Criteria   domain.Criteria
	Comparison []string
	Window     int
	Mode       domain.RollingMode
}

// Transformer runs the domain stages that turn the loaded table into a Result.
type Transformer struct {
	opts   Options
	logger *slog.Logger
}

// NewTransformer creates a Transformer for opts.
func NewTransformer(opts Options, logger *slog.Logger) *Transformer {
	return &Transformer{opts: opts, logger: logger}
}

// Select returns the cleaned target subset and the number of matching rows
// dropped for a missing new_cases value.
func (t *Transformer) Select(table domain.Table) (domain.Table, int, error) {
	matched := domain.Filter(table, t.opts.Criteria).Len()
	cleaned, err := domain.Select(table, t.opts.Criteria)
	if err != nil {
		return domain.Table{}, 0, err
	}
	dropped := matched - cleaned.Len()
	t.logger.Info("subset selected",
		"location", t.opts.Criteria.Location,
		"matched", matched,
		"dropped", dropped,
		"rows", cleaned.Len(),
		"first_date", cleaned.Rows[0].Date.Format(domain.DateLayout),
		"last_date", cleaned.Rows[cleaned.Len()-1].Date.Format(domain.DateLayout),
	)
	return cleaned, dropped, nil
}

// Smooth appends the rolling means and returns the number of date gaps in
// the subset.
func (t *Transformer) Smooth(subset domain.Table) (domain.Table, int, error) {
	smoothed, err := domain.Smooth(subset, t.opts.Window, t.opts.Mode)
	if err != nil {
		return domain.Table{}, 0, err
	}
	gaps := domain.DateGaps(subset)
	if gaps > 0 {
		t.logger.Warn("date gaps in subset", "gaps", gaps, "mode", string(t.opts.Mode), "window", t.opts.Window)
	}
	return smoothed, gaps, nil
}

// Compare computes the smoothed new-case curve of every comparison location
// from the full table. Absent locations are logged and skipped.
func (t *Transformer) Compare(table domain.Table) ([]domain.LocationSeries, error) {
	series, missing, err := domain.CompareLocations(table, t.opts.Comparison, t.opts.Window, t.opts.Mode)
	if err != nil {
		return nil, err
	}
	for _, loc := range missing {
		t.logger.Warn("comparison location not found, skipping", "location", loc)
	}
	return series, nil
}

// Correlate returns the correlation matrix of the cleaned subset, or nil
// when too few complete rows exist.
func (t *Transformer) Correlate(cleaned domain.Table) (*domain.CorrelationMatrix, error) {
	m, err := domain.Correlate(cleaned, domain.CorrelationColumns...)
	if errors.Is(err, domain.ErrInsufficientData) {
		t.logger.Warn("correlation skipped", "reason", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.logger.Debug("correlation computed", "complete_rows", m.Rows)
	return &m, nil
}
