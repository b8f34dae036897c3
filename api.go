package waterworks

import (
	"io"
	"net/http"

	base "github.com/Adi0604/Water-Works/pkg/waterworks"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/Adi0604/Water-Works directly.
type (
	Config          = base.Config
	HTTPConfig      = base.HTTPConfig
	MetricsConfig   = base.MetricsConfig
	LoggingConfig   = base.LoggingConfig
	DatabaseConfig  = base.DatabaseConfig
	SourceConfig    = base.SourceConfig
	VariantConfig   = base.VariantConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	SourceOption    = base.SourceOption
	Dashboard       = base.Dashboard
	DashboardOption = base.DashboardOption
	Row             = base.Row
	Metric          = base.Metric
	Catalog         = base.Catalog
	RenderEvent     = base.RenderEvent
	MissingSignal   = base.MissingSignal
	Warning         = base.Warning
	Summary         = base.Summary
	DataSource      = base.DataSource
	EventSink       = base.EventSink
	SessionSink     = base.SessionSink
	Observability   = base.Observability
	Field           = base.Field
	Artifact        = base.Artifact
	Clock           = base.Clock
	Event           = base.Event
	EventKind       = base.EventKind
	EventHandler    = base.EventHandler
	MemorySource    = base.MemorySource
)

// Event kinds delivered by callback and channel sinks.
const (
	EventRender  = base.EventRender
	EventMissing = base.EventMissing
	EventWarning = base.EventWarning
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...DashboardOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func SourceOverride(name string, src DataSource) SourceOption {
	return base.SourceOverride(name, src)
}

func SourceObservability(obs Observability) SourceOption {
	return base.SourceObservability(obs)
}

// Dashboard and options.
func NewDashboard(cfg *Config, opts ...DashboardOption) (*Dashboard, error) {
	return base.NewDashboard(cfg, opts...)
}

func WithSource(name string, src DataSource) DashboardOption {
	return base.WithSource(name, src)
}

func WithObservability(obs Observability) DashboardOption {
	return base.WithObservability(obs)
}

func WithClock(c Clock) DashboardOption {
	return base.WithClock(c)
}

func WithMetricsHandler(h http.Handler) DashboardOption {
	return base.WithMetricsHandler(h)
}

// Sink adapters.
func NewCallbackSink(name string, fn EventHandler) SessionSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (SessionSink, <-chan Event, func()) {
	return base.NewChannelSink(name, buffer)
}

func NewLineSink(w io.Writer) SessionSink {
	return base.NewLineSink(w)
}

func FormatEvent(ev Event) string {
	return base.FormatEvent(ev)
}

// In-memory source.
func NewMemorySource(name string) *MemorySource {
	return base.NewMemorySource(name)
}
