package waterworks

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → Sources → Serve
// without touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []DashboardOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// SourceOption replaces configured sources.
type SourceOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a dashboard.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw DashboardOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...DashboardOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// Sources records source overrides.
func (f *Flow) Sources(opts ...SourceOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Build creates the Dashboard.
func (f *Flow) Build() (*Dashboard, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	return NewDashboard(f.cfg, f.opts...)
}

// Serve is a shortcut for Build + Dashboard.Run.
func (f *Flow) Serve(ctx context.Context) error {
	d, err := f.Build()
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// Replay builds the dashboard, replays one page into sink and closes the
// sources again.
func (f *Flow) Replay(ctx context.Context, slug string, sink SessionSink) (Summary, error) {
	d, err := f.Build()
	if err != nil {
		return Summary{}, err
	}
	sum, err := d.Replay(ctx, slug, sink)
	if cerr := d.Shutdown(context.Background()); err == nil {
		err = cerr
	}
	return sum, err
}

// WithFlowOptions appends DashboardOption values during Conf.
func WithFlowOptions(opts ...DashboardOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// SourceOverride replaces the configured source called name with src.
func SourceOverride(name string, src DataSource) SourceOption {
	return func(f *Flow) {
		if f != nil && src != nil {
			f.appendOptions(WithSource(name, src))
		}
	}
}

// SourceObservability overrides the default Prometheus and zerolog stack.
func SourceObservability(obs Observability) SourceOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

func (f *Flow) appendOptions(opts ...DashboardOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
