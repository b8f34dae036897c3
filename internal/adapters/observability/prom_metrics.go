package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

type PromObs struct {
	log      zerolog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the dashboard metrics with the default registerer.
// Later calls share the collectors registered by the first one.
func NewPromObs(logger zerolog.Logger) *PromObs {
	return NewPromObsWith(prometheus.DefaultRegisterer, logger)
}

// NewPromObsWith registers the dashboard metrics with reg. A metric already
// present in reg is reused, so several dashboards can share one registry.
func NewPromObsWith(reg prometheus.Registerer, logger zerolog.Logger) *PromObs {
	steps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waterworks_replay_steps_total",
		Help: "Timestamps processed by replay runs.",
	})
	rendered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waterworks_rows_rendered_total",
		Help: "Rows appended to a display buffer and rendered.",
	})
	missing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waterworks_rows_missing_total",
		Help: "Timestamps for which the source returned no row.",
	})
	sourceErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waterworks_source_errors_total",
		Help: "Failed data source calls.",
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "waterworks_active_sessions",
		Help: "Replay sessions currently streaming to a viewer.",
	})
	bufferRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "waterworks_display_buffer_rows",
		Help: "Rows held by the most recently updated display buffer.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "waterworks_fetch_latency_seconds",
		Help:    "Latency of a single row fetch against the data source.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	steps = register(reg, logger, steps)
	rendered = register(reg, logger, rendered)
	missing = register(reg, logger, missing)
	sourceErrs = register(reg, logger, sourceErrs)
	sessions = register(reg, logger, sessions)
	bufferRows = register(reg, logger, bufferRows)
	latency = register(reg, logger, latency)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			"waterworks_replay_steps_total":  steps,
			"waterworks_rows_rendered_total": rendered,
			"waterworks_rows_missing_total":  missing,
			"waterworks_source_errors_total": sourceErrs,
		},
		gauges: map[string]prometheus.Gauge{
			"waterworks_active_sessions":     sessions,
			"waterworks_display_buffer_rows": bufferRows,
		},
		histos: map[string]prometheus.Observer{
			"waterworks_fetch_latency_seconds": latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	with(p.log.Info(), fields).Msg(msg)
}

func (p *PromObs) LogWarn(msg string, fields ...ports.Field) {
	with(p.log.Warn(), fields).Msg(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	with(p.log.Error().Err(err), fields).Msg(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordMissing(sig domain.MissingSignal) {
	p.IncCounter("waterworks_rows_missing_total", 1)
	p.log.Warn().
		Str("feed", sig.Feed).
		Int("seq", sig.Seq).
		Time("timestamp", sig.Timestamp).
		Msg("row_missing")
}

func with(ev *zerolog.Event, fields []ports.Field) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}

// register adds c to reg, returning the collector reg already holds under
// the same descriptor. Other registration failures leave c unexported.
func register[C prometheus.Collector](reg prometheus.Registerer, logger zerolog.Logger, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logger.Warn().Err(err).Msg("metric_register_failed")
	return c
}
