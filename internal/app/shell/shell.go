// Package shell owns page selection: which facility variant is shown and
// which source and catalog a replay session reads.
package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adi0604/Water-Works/internal/adapters/charts"
	"github.com/Adi0604/Water-Works/internal/app/replay"
	"github.com/Adi0604/Water-Works/internal/clock"
	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

var ErrUnknownPage = errors.New("shell: unknown page")

// ViewState is the per-viewer navigation state. The web adapter keeps one
// per browser; nothing here is process-global.
type ViewState struct {
	ActivePage string
}

// Page binds a facility variant to its source and catalog.
type Page struct {
	Name         string
	Slug         string
	Feed         string
	Catalog      domain.Catalog
	Distribution charts.Distribution
	Delay        time.Duration
	Source       ports.DataSource
}

type Shell struct {
	pages  []Page
	bySlug map[string]int
	clock  clock.Clock
	obs    ports.Observability
}

type Option func(*Shell)

func WithClock(c clock.Clock) Option {
	return func(s *Shell) { s.clock = c }
}

func WithObservability(obs ports.Observability) Option {
	return func(s *Shell) { s.obs = obs }
}

// New registers pages in navigation order. The first page is the default.
func New(pages []Page, opts ...Option) (*Shell, error) {
	if len(pages) == 0 {
		return nil, errors.New("shell: at least one page is required")
	}
	s := &Shell{bySlug: make(map[string]int, len(pages))}
	for i, p := range pages {
		if p.Source == nil {
			return nil, fmt.Errorf("shell: page %q has no source", p.Name)
		}
		if _, dup := s.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("shell: duplicate page %q", p.Slug)
		}
		s.bySlug[p.Slug] = i
	}
	s.pages = append([]Page(nil), pages...)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Pages returns the pages in navigation order.
func (s *Shell) Pages() []Page {
	return append([]Page(nil), s.pages...)
}

func (s *Shell) Page(slug string) (Page, error) {
	i, ok := s.bySlug[slug]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
	}
	return s.pages[i], nil
}

// Select makes slug the active page of state.
func (s *Shell) Select(state *ViewState, slug string) (Page, error) {
	p, err := s.Page(slug)
	if err != nil {
		return Page{}, err
	}
	state.ActivePage = p.Slug
	return p, nil
}

// Active returns the page state points at, or the first page when the state
// is empty or stale.
func (s *Shell) Active(state ViewState) Page {
	if p, err := s.Page(state.ActivePage); err == nil {
		return p
	}
	return s.pages[0]
}

// Run starts a fresh replay of the page. A source that cannot list its
// timestamps, or lists none, produces one warning and no run.
func (s *Shell) Run(ctx context.Context, slug string, sink ports.SessionSink) (replay.Summary, error) {
	p, err := s.Page(slug)
	if err != nil {
		return replay.Summary{}, err
	}

	stamps, err := p.Source.ListTimestamps(ctx, p.Feed)
	if err != nil {
		if ctx.Err() != nil {
			return replay.Summary{}, ctx.Err()
		}
		s.logError("list_timestamps_failed", err, p)
		return replay.Summary{}, sink.Warning(ctx, domain.Warning{
			Feed:    p.Feed,
			Message: fmt.Sprintf("Error fetching timestamps: %v", err),
		})
	}
	if len(stamps) == 0 {
		return replay.Summary{}, sink.Warning(ctx, domain.Warning{
			Feed:    p.Feed,
			Message: "No data available for " + p.Name,
		})
	}

	var opts []replay.Option
	if s.clock != nil {
		opts = append(opts, replay.WithClock(s.clock))
	}
	if s.obs != nil {
		opts = append(opts, replay.WithObservability(s.obs))
	}
	eng, err := replay.NewEngine(p.Source, replay.Config{Delay: p.Delay}, opts...)
	if err != nil {
		return replay.Summary{}, err
	}
	return eng.Run(ctx, replay.Job{Feed: p.Feed, Timestamps: stamps, Catalog: p.Catalog}, sink)
}

func (s *Shell) logError(msg string, err error, p Page) {
	if s.obs == nil {
		return
	}
	s.obs.IncCounter("waterworks_source_errors_total", 1)
	s.obs.LogError(msg, err,
		ports.Field{Key: "page", Value: p.Slug},
		ports.Field{Key: "source", Value: p.Source.Name()},
	)
}

// Close releases every distinct source once.
func (s *Shell) Close() error {
	seen := map[ports.DataSource]bool{}
	var errs []error
	for _, p := range s.pages {
		if seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		if err := p.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Source.Name(), err))
		}
	}
	return errors.Join(errs...)
}
