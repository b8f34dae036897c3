package waterworks

import (
	"github.com/Adi0604/Water-Works/internal/adapters/charts"
	"github.com/Adi0604/Water-Works/internal/app/replay"
	"github.com/Adi0604/Water-Works/internal/clock"
	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// Row is one timestamp of sensor readings.
type Row = domain.Row

// Metric is a (name, max) descriptor of a gauge or bar.
type Metric = domain.Metric

// Catalog lists the flow and totalizer metrics of a page.
type Catalog = domain.Catalog

// RenderEvent is emitted for every timestamp that produced a row.
type RenderEvent = domain.RenderEvent

// MissingSignal is emitted for every timestamp that produced no row.
type MissingSignal = domain.MissingSignal

// Warning reports a feed that could not be replayed at all.
type Warning = domain.Warning

// Summary describes a finished or cancelled replay.
type Summary = replay.Summary

// DataSource lists timestamps of a feed and fetches rows by exact timestamp.
type DataSource = ports.DataSource

// EventSink receives render events and missing signals.
type EventSink = ports.EventSink

// SessionSink is an EventSink that also receives warnings.
type SessionSink = ports.SessionSink

// Observability emits logs and metrics about replay sessions.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Artifact is a rendered chart.
type Artifact = charts.Artifact

// Clock paces replay runs.
type Clock = clock.Clock
