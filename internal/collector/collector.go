// Package collector turns a fixed set of category-tagged queries into a
// deduplicated, time-ordered event set.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/metrics"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/rs/zerolog/log"
)

// Source fetches raw signals for one query over a window.
type Source interface {
	Search(ctx context.Context, q models.QuerySpec, w models.Window) ([]models.RawSignal, error)
}

// Collector runs every query in a QuerySet against a Source, one at a time.
type Collector struct {
	source       Source
	queries      models.QuerySet
	windowLength time.Duration
	now          func() time.Time
	metrics      *metrics.Recorder
}

// Option configures the Collector.
type Option func(*Collector)

// WithClock overrides the time source used to compute the window.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// WithWindowLength overrides the rolling window length.
func WithWindowLength(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.windowLength = d
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// New creates a Collector.
func New(source Source, queries models.QuerySet, opts ...Option) *Collector {
	c := &Collector{
		source:       source,
		queries:      queries,
		windowLength: models.DefaultWindowLength,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryResult is the outcome of one query.
type QueryResult struct {
	Query   models.QuerySpec
	Fetched int
	Err     error
}

// Report summarises a collection run.
type Report struct {
	Window     models.Window
	Results    []QueryResult
	Fetched    int
	Kept       int
	Duplicates int
	Failed     int
	Duration   time.Duration
}

// Collect issues every query sequentially, tags, sorts and deduplicates the
// results. Query failures are logged and counted as zero results; a run in
// which every query fails returns an empty, non-nil EventSet. Cancelling ctx
// stops the run and returns the context error with no EventSet, so callers
// never persist a partial collection.
func (c *Collector) Collect(ctx context.Context) (models.EventSet, *Report, error) {
	started := c.now()
	window := models.RollingWindow(started, c.windowLength)

	report := &Report{Window: window}
	accumulated := make(models.EventSet, 0)

	log.Info().
		Int("queries", c.queries.Len()).
		Time("start", window.Start).
		Time("end", window.End).
		Msg("Starting collection")

	for _, q := range c.queries.Specs() {
		if err := ctx.Err(); err != nil {
			return c.interrupted(report, started, err)
		}

		raw, err := c.source.Search(ctx, q, window)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return c.interrupted(report, started, ctxErr)
			}
			log.Warn().
				Err(err).
				Str("query", q.Label()).
				Str("category", q.Category).
				Msg("Query failed, continuing with zero results")
			report.Results = append(report.Results, QueryResult{Query: q, Err: err})
			report.Failed++
			c.metrics.QueryDone(metrics.OutcomeFailed)
			continue
		}

		for _, sig := range raw {
			accumulated = append(accumulated, models.Tag(sig, q))
		}

		report.Results = append(report.Results, QueryResult{Query: q, Fetched: len(raw)})
		report.Fetched += len(raw)
		c.metrics.QueryDone(metrics.OutcomeOK)
		c.metrics.SignalsFetched(len(raw))

		log.Debug().
			Str("query", q.Label()).
			Int("signals", len(raw)).
			Msg("Query complete")
	}

	SortDescending(accumulated)
	events := Dedup(accumulated)

	report.Kept = len(events)
	report.Duplicates = len(accumulated) - len(events)
	report.Duration = c.now().Sub(started)
	c.metrics.EventSetBuilt(report.Kept, report.Duplicates)

	log.Info().
		Int("fetched", report.Fetched).
		Int("kept", report.Kept).
		Int("duplicates", report.Duplicates).
		Int("failed_queries", report.Failed).
		Msg("Collection complete")

	return events, report, nil
}

func (c *Collector) interrupted(report *Report, started time.Time, err error) (models.EventSet, *Report, error) {
	report.Duration = c.now().Sub(started)
	log.Warn().
		Err(err).
		Int("completed_queries", len(report.Results)).
		Int("queries", c.queries.Len()).
		Msg("Collection interrupted")
	return nil, report, fmt.Errorf("collection interrupted: %w", err)
}
