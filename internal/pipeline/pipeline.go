package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
	"github.com/couchcryptid/site-reconciliation-service/internal/observability"
)

// Source fetches the raw sheet rows.
type Source interface {
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
}

// Transformer converts a raw row into a classified record. It never fails;
// field problems travel on the record as issues.
type Transformer interface {
	Transform(ctx context.Context, row domain.RawRow) domain.SiteRecord
}

// Sink receives every successful snapshot.
type Sink interface {
	Name() string
	Publish(ctx context.Context, report *domain.Report) error
}

// Pipeline orchestrates the load-classify-publish refresh loop.
type Pipeline struct {
	source      Source
	transformer Transformer
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	interval    time.Duration

	snapshot atomic.Pointer[domain.Report]
}

// New creates a Pipeline that refreshes every interval.
func New(s Source, t Transformer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	return &Pipeline{
		source:      s,
		transformer: t,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		interval:    interval,
	}
}

// SetClock swaps the time source for tests. Pass nil to reset to real time.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// Snapshot returns the last successful report, or nil before the first refresh.
func (p *Pipeline) Snapshot() *domain.Report {
	return p.snapshot.Load()
}

// CheckReadiness returns nil once a snapshot is available.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no sheet snapshot loaded yet")
	}
	return nil
}

// Refresh loads the sheet, classifies every row, publishes the report to the
// sinks and swaps it in as the current snapshot. A load failure returns an
// error and keeps the previous snapshot. Sink failures are logged only.
func (p *Pipeline) Refresh(ctx context.Context) (*domain.Report, error) {
	start := p.clock.Now()

	rows, err := p.source.FetchRows(ctx)
	if err != nil {
		p.metrics.Refreshes.WithLabelValues("load_error").Inc()
		return nil, fmt.Errorf("refresh: %w", err)
	}
	p.metrics.RowsLoaded.Add(float64(len(rows)))

	records := make([]domain.SiteRecord, 0, len(rows))
	for _, row := range rows {
		rec := p.transformer.Transform(ctx, row)
		for _, issue := range rec.Issues {
			p.metrics.FieldIssues.WithLabelValues(issue.Field).Inc()
			p.logger.Debug("field issue",
				"row", issue.Row,
				"field", issue.Field,
				"value", issue.Value,
				"error", issue.Err,
			)
		}
		records = append(records, rec)
	}

	report := domain.BuildReport(records, start.UTC())
	p.publish(ctx, &report)
	p.snapshot.Store(&report)
	p.recordSnapshot(&report, start)

	p.logger.Info("refresh complete",
		"records", report.Summary.Total,
		"invalid_geometry", report.Summary.InvalidGeometry,
		"records_with_issues", report.Summary.RecordsWithIssues,
		"duration", p.clock.Since(start),
	)
	return &report, nil
}

// Run refreshes immediately and then every interval until the context is
// cancelled. Failed loads are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 1s, double each retry, cap at the refresh
	// interval so a broken sheet is never polled slower than a healthy one.
	const initialBackoff = time.Second
	backoff := initialBackoff
	maxBackoff := max(p.interval, initialBackoff)

	for {
		wait := p.interval
		if _, err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, report *domain.Report) {
	for _, s := range p.sinks {
		if err := s.Publish(ctx, report); err != nil {
			p.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			p.logger.Error("publish snapshot failed", "sink", s.Name(), "error", err)
		}
	}
}

func (p *Pipeline) recordSnapshot(report *domain.Report, start time.Time) {
	for _, c := range report.Summary.Categories {
		p.metrics.RecordsByCategory.WithLabelValues(string(c.Category)).Set(float64(c.Count))
	}
	p.metrics.InvalidGeometry.Set(float64(report.Summary.InvalidGeometry))
	p.metrics.LastRefresh.Set(float64(start.Unix()))
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.Refreshes.WithLabelValues("success").Inc()
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
