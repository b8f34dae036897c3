// Package replay drives a feed through renderers one timestamp at a time.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adi0604/Water-Works/internal/clock"
	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// ErrNoTimestamps is returned when a job has nothing to replay.
var ErrNoTimestamps = errors.New("replay: feed has no timestamps")

// Config controls pacing.
type Config struct {
	// Delay is the pause after every step, including steps that found no row.
	Delay time.Duration
}

// Job is one replay run over a feed.
type Job struct {
	Feed       string
	Timestamps []time.Time
	Catalog    domain.Catalog
}

// Summary describes a finished or interrupted run.
type Summary struct {
	Steps    int
	Rendered int
	Missing  int
	Buffer   []domain.Row
}

// Engine replays jobs against a single data source.
type Engine struct {
	cfg    Config
	source ports.DataSource
	clock  clock.Clock
	obs    ports.Observability
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock swaps the clock used for pacing.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithObservability plugs in logging and metrics.
func WithObservability(obs ports.Observability) Option {
	return func(e *Engine) {
		if obs != nil {
			e.obs = obs
		}
	}
}

// NewEngine builds an engine reading from src.
func NewEngine(src ports.DataSource, cfg Config, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("replay: data source is required")
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("replay: negative delay %s", cfg.Delay)
	}
	e := &Engine{
		cfg:    cfg,
		source: src,
		clock:  clock.Real(),
		obs:    nopObservability{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Run processes job.Timestamps strictly in order. Each step fetches one row;
// a hit is appended to the display buffer and rendered, a miss is signalled.
// Either way the engine then waits Config.Delay. Cancelling ctx stops the run
// between steps or during the wait and returns ctx.Err() with the partial
// summary. A sink error stops the run as well.
func (e *Engine) Run(ctx context.Context, job Job, sink ports.EventSink) (sum Summary, err error) {
	if sink == nil {
		return Summary{}, fmt.Errorf("replay: event sink is required")
	}
	if len(job.Timestamps) == 0 {
		return Summary{}, ErrNoTimestamps
	}

	var buf domain.Buffer
	defer func() {
		sum.Buffer = buf.Snapshot()
	}()

	for i, ts := range job.Timestamps {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		seq := i + 1

		row, ok := e.fetch(ctx, job.Feed, ts)
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Steps++
		e.obs.IncCounter("waterworks_replay_steps_total", 1)

		if ok {
			buf.Append(row)
			ev := domain.RenderEvent{
				Seq:       seq,
				Feed:      job.Feed,
				Row:       row,
				Buffer:    buf.Snapshot(),
				Catalog:   job.Catalog,
				Flow:      domain.ResolveAll(row, job.Catalog.Flow),
				Totalizer: domain.ResolveAll(row, job.Catalog.Totalizer),
			}
			if err := sink.Render(ctx, ev); err != nil {
				return sum, fmt.Errorf("sink %s render step %d: %w", sink.Name(), seq, err)
			}
			sum.Rendered++
			e.obs.IncCounter("waterworks_rows_rendered_total", 1)
			e.obs.SetGauge("waterworks_display_buffer_rows", float64(buf.Len()))
		} else {
			sig := domain.MissingSignal{Seq: seq, Feed: job.Feed, Timestamp: ts}
			e.obs.RecordMissing(sig)
			if err := sink.Missing(ctx, sig); err != nil {
				return sum, fmt.Errorf("sink %s missing step %d: %w", sink.Name(), seq, err)
			}
			sum.Missing++
		}

		if err := e.wait(ctx); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// fetch collapses fetch errors into a miss: the step is reported as missing
// data and the run goes on.
func (e *Engine) fetch(ctx context.Context, feed string, ts time.Time) (domain.Row, bool) {
	start := e.clock.Now()
	row, ok, err := e.source.FetchRow(ctx, feed, ts)
	e.obs.ObserveLatency("waterworks_fetch_latency_seconds", e.clock.Since(start).Seconds())
	if err != nil {
		e.obs.IncCounter("waterworks_source_errors_total", 1)
		e.obs.LogError("fetch_row_failed", err,
			ports.Field{Key: "source", Value: e.source.Name()},
			ports.Field{Key: "feed", Value: feed},
			ports.Field{Key: "timestamp", Value: ts})
		return domain.Row{}, false
	}
	return row, ok
}

func (e *Engine) wait(ctx context.Context) error {
	if e.cfg.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(e.cfg.Delay):
		return nil
	}
}

type nopObservability struct{}

func (nopObservability) LogInfo(string, ...ports.Field)         {}
func (nopObservability) LogWarn(string, ...ports.Field)         {}
func (nopObservability) LogError(string, error, ...ports.Field) {}
func (nopObservability) IncCounter(string, float64)             {}
func (nopObservability) ObserveLatency(string, float64)         {}
func (nopObservability) SetGauge(string, float64)               {}
func (nopObservability) RecordMissing(domain.MissingSignal)     {}
