package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// Extractor reads the full dataset from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.Table, error)
}

// Renderer draws the charts for a result and returns the written file paths.
type Renderer interface {
	Render(ctx context.Context, res domain.Result) ([]string, error)
	// Charts lists every chart the renderer can produce.
	Charts() []string
}

// Loader writes a result to one destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, res domain.Result) error
}

// Pipeline runs load, select, smooth, compare, correlate, render, and save in sequence.
type Pipeline struct {
	extractor   Extractor
	transformer *Transformer
	renderer    Renderer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Loaders run
// in order after rendering.
func New(e Extractor, t *Transformer, r Renderer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		renderer:    r,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run")
	}
	return nil
}

// Run executes every stage once. It stops at the first failing stage or when
// ctx is cancelled between stages.
func (p *Pipeline) Run(ctx context.Context) (domain.Result, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "location", p.transformer.opts.Criteria.Location)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	res := domain.Result{Location: p.transformer.opts.Criteria.Location}
	var table domain.Table

	err := p.stage(ctx, "extract", func() error {
		var err error
		table, err = p.extractor.Extract(ctx)
		if err == nil {
			p.metrics.RowsLoaded.Add(float64(table.Len()))
		}
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	var subset domain.Table
	err = p.stage(ctx, "select", func() error {
		var (
			dropped int
			err     error
		)
		subset, dropped, err = p.transformer.Select(table)
		if err == nil {
			p.metrics.RowsSelected.Set(float64(subset.Len()))
			p.metrics.RowsDropped.Add(float64(dropped))
		}
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	err = p.stage(ctx, "smooth", func() error {
		var (
			gaps int
			err  error
		)
		res.Cleaned, gaps, err = p.transformer.Smooth(subset)
		if err == nil {
			p.metrics.DateGaps.Set(float64(gaps))
		}
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	err = p.stage(ctx, "compare", func() error {
		var err error
		res.Comparison, err = p.transformer.Compare(table)
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	err = p.stage(ctx, "correlate", func() error {
		var err error
		res.Correlation, err = p.transformer.Correlate(res.Cleaned)
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	var charts []string
	err = p.stage(ctx, "render", func() error {
		var err error
		charts, err = p.renderer.Render(ctx, res)
		p.metrics.ChartsRendered.Add(float64(len(charts)))
		if err == nil {
			p.metrics.ChartsSkipped.Add(float64(len(p.renderer.Charts()) - len(charts)))
		}
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}

	for _, l := range p.loaders {
		err = p.stage(ctx, "load_"+l.Name(), func() error {
			if err := l.Load(ctx, res); err != nil {
				return err
			}
			p.metrics.RowsWritten.WithLabelValues(l.Name()).Add(float64(res.Cleaned.Len()))
			return nil
		})
		if err != nil {
			return domain.Result{}, err
		}
	}

	p.ready.Store(true)
	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	p.logger.Info("pipeline finished",
		"rows", res.Cleaned.Len(),
		"charts", len(charts),
		"sinks", len(p.loaders),
		"duration", time.Since(start),
	)
	return res, nil
}

// stage runs fn as the named stage, recording its duration and any failure.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		p.metrics.StageErrors.WithLabelValues(name).Inc()
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}
