package waterworks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adi0604/Water-Works/internal/adapters/observability"
	"github.com/Adi0604/Water-Works/internal/adapters/sqlsource"
	"github.com/Adi0604/Water-Works/internal/adapters/web"
	"github.com/Adi0604/Water-Works/internal/adapters/xlsxsource"
	"github.com/Adi0604/Water-Works/internal/app/config"
	"github.com/Adi0604/Water-Works/internal/app/shell"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// DashboardOption customizes the dependencies used by Dashboard.
type DashboardOption func(*dashboardOverrides)

type dashboardOverrides struct {
	sources       map[string]DataSource
	observability Observability
	clock         Clock
	metrics       http.Handler
}

// WithSource replaces the configured source called name, for example with
// an in-memory source in tests or a custom historian client.
func WithSource(name string, src DataSource) DashboardOption {
	return func(o *dashboardOverrides) {
		if o.sources == nil {
			o.sources = make(map[string]DataSource)
		}
		o.sources[name] = src
	}
}

// WithObservability plugs in a custom logging and metrics backend.
func WithObservability(obs Observability) DashboardOption {
	return func(o *dashboardOverrides) {
		o.observability = obs
	}
}

// WithClock swaps the clock that paces replay runs.
func WithClock(c Clock) DashboardOption {
	return func(o *dashboardOverrides) {
		o.clock = c
	}
}

// WithMetricsHandler serves h on /metrics instead of the Prometheus default.
func WithMetricsHandler(h http.Handler) DashboardOption {
	return func(o *dashboardOverrides) {
		o.metrics = h
	}
}

// Dashboard wires configured sources into pages and serves them.
type Dashboard struct {
	cfg     *Config
	obs     ports.Observability
	shell   *shell.Shell
	handler http.Handler
	srv     *http.Server
	serveCh chan error
	stop    context.CancelFunc
}

// NewDashboard opens every configured source and builds the pages. Opening
// does not contact a database; unreachable sources surface as a warning
// when a page is viewed.
func NewDashboard(cfg *Config, opts ...DashboardOption) (*Dashboard, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov dashboardOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.observability
	if obs == nil {
		logger, err := observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, err
		}
		obs = observability.NewPromObs(logger)
	}

	sources := make(map[string]DataSource, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if src, ok := ov.sources[sc.Name]; ok && src != nil {
			sources[sc.Name] = src
			continue
		}
		src, err := openSource(cfg, sc, obs)
		if err != nil {
			closeAll(sources)
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		sources[sc.Name] = src
	}

	pages := make([]shell.Page, 0, len(cfg.Variants))
	for _, v := range cfg.Variants {
		sc, _ := cfg.Source(v.Source)
		src, ok := sources[v.Source]
		if !ok {
			closeAll(sources)
			return nil, fmt.Errorf("variant %q: unknown source %q", v.Name, v.Source)
		}
		feed := v.Feed
		if feed == "" && sc.Kind == config.KindXLSX {
			feed = sc.Sheet
		}
		pages = append(pages, shell.Page{
			Name:         v.Name,
			Slug:         v.Slug,
			Feed:         feed,
			Catalog:      v.Catalog(),
			Distribution: v.Distribution,
			Delay:        sc.Delay,
			Source:       src,
		})
	}

	shellOpts := []shell.Option{shell.WithObservability(obs)}
	if ov.clock != nil {
		shellOpts = append(shellOpts, shell.WithClock(ov.clock))
	}
	sh, err := shell.New(pages, shellOpts...)
	if err != nil {
		closeAll(sources)
		return nil, err
	}

	webOpts := []web.Option{web.WithObservability(obs)}
	if cfg.Metrics.On() {
		h := ov.metrics
		if h == nil {
			h = promhttp.Handler()
		}
		webOpts = append(webOpts, web.WithMetricsHandler(h))
	}

	return &Dashboard{
		cfg:     cfg,
		obs:     obs,
		shell:   sh,
		handler: web.NewServer(sh, webOpts...).Handler(),
	}, nil
}

func openSource(cfg *Config, sc config.SourceConfig, obs Observability) (DataSource, error) {
	switch sc.Kind {
	case config.KindSQL:
		return sqlsource.Open(cfg.Database.Driver, cfg.Database.ConnString(), sqlsource.Options{
			Name:            sc.Name,
			TimestampColumn: sc.TimestampColumn,
			Feeds:           cfg.Feeds(sc.Name),
			Observability:   obs,
		})
	case config.KindXLSX:
		return xlsxsource.New(xlsxsource.Options{
			Name:            sc.Name,
			Location:        sc.Path,
			TimestampColumn: sc.TimestampColumn,
			Observability:   obs,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
}

func closeAll(sources map[string]DataSource) {
	for _, s := range sources {
		_ = s.Close()
	}
}

// Handler exposes the dashboard routes for embedding in another server.
func (d *Dashboard) Handler() http.Handler {
	return d.handler
}

// Pages lists the configured variants in navigation order.
func (d *Dashboard) Pages() []VariantConfig {
	out := make([]VariantConfig, 0, len(d.cfg.Variants))
	for _, p := range d.shell.Pages() {
		for _, v := range d.cfg.Variants {
			if v.Slug == p.Slug {
				out = append(out, v)
			}
		}
	}
	return out
}

// Replay runs one page headlessly into sink, as a browser session would.
func (d *Dashboard) Replay(ctx context.Context, slug string, sink SessionSink) (Summary, error) {
	return d.shell.Run(ctx, slug, sink)
}

// Start begins serving on the configured address and returns immediately.
func (d *Dashboard) Start() error {
	if d == nil {
		return fmt.Errorf("dashboard is nil")
	}
	ln, err := net.Listen("tcp", d.cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	// Websocket connections are hijacked and outlive srv.Shutdown, so
	// sessions hang off a base context that Shutdown cancels.
	base, stop := context.WithCancel(context.Background())
	d.stop = stop
	d.srv = &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	d.serveCh = make(chan error, 1)
	go func() {
		err := d.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.obs.LogError("http_server_exited", err)
		}
		d.serveCh <- err
	}()
	d.obs.LogInfo("dashboard_started", ports.Field{Key: "addr", Value: ln.Addr().String()})
	return nil
}

// Run starts the dashboard and blocks until ctx is cancelled, then shuts
// down gracefully.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case err := <-d.serveCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = d.shell.Close()
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server, which cancels running sessions, and
// closes every source.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	var errs []error

	if d.stop != nil {
		d.stop()
	}
	if d.srv != nil {
		if err := d.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if err := d.shell.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
