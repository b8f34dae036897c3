package waterworks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Adi0604/Water-Works/internal/adapters/web"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("waterworks: channel sink closed")

// EventKind tells which field of an Event is set.
type EventKind string

const (
	EventRender  EventKind = "render"
	EventMissing EventKind = "missing"
	EventWarning EventKind = "warning"
)

// Event is the single value type delivered by callback and channel sinks.
type Event struct {
	Kind    EventKind
	Render  *RenderEvent
	Missing *MissingSignal
	Warning *Warning
}

// EventHandler is invoked once per event, in replay order.
type EventHandler func(Event) error

// NewCallbackSink adapts an EventHandler into a SessionSink so callers can
// plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn EventHandler) SessionSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes events via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (SessionSink, <-chan Event, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

// NewLineSink writes one human-readable line per event to w.
func NewLineSink(w io.Writer) SessionSink {
	return NewCallbackSink("lines", func(ev Event) error {
		_, err := io.WriteString(w, FormatEvent(ev)+"\n")
		return err
	})
}

// FormatEvent renders ev as a single line with values formatted 1,234.56.
func FormatEvent(ev Event) string {
	switch ev.Kind {
	case EventRender:
		r := ev.Render
		cells := web.TableRow(r.Row, r.Catalog)
		header := web.TableHeader(r.Catalog)
		parts := make([]string, 0, len(cells)-1)
		for i := 1; i < len(cells); i++ {
			parts = append(parts, header[i]+"="+cells[i])
		}
		return fmt.Sprintf("#%d %s %s", r.Seq, cells[0], strings.Join(parts, " "))
	case EventMissing:
		return fmt.Sprintf("#%d %s no data found", ev.Missing.Seq, ev.Missing.Timestamp.Format("2006-01-02 15:04:05"))
	case EventWarning:
		return "warning: " + ev.Warning.Message
	default:
		return string(ev.Kind)
	}
}

type callbackSink struct {
	name string
	fn   EventHandler
}

func (s *callbackSink) Render(_ context.Context, ev RenderEvent) error {
	return s.emit(Event{Kind: EventRender, Render: &ev})
}

func (s *callbackSink) Missing(_ context.Context, sig MissingSignal) error {
	return s.emit(Event{Kind: EventMissing, Missing: &sig})
}

func (s *callbackSink) Warning(_ context.Context, w Warning) error {
	return s.emit(Event{Kind: EventWarning, Warning: &w})
}

func (s *callbackSink) emit(ev Event) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(ev)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan Event
	closed chan struct{}
	once   sync.Once
	// mu is held shared by senders so close never races a send on ch.
	mu sync.RWMutex
}

func (s *channelSink) Render(ctx context.Context, ev RenderEvent) error {
	return s.send(ctx, Event{Kind: EventRender, Render: &ev})
}

func (s *channelSink) Missing(ctx context.Context, sig MissingSignal) error {
	return s.send(ctx, Event{Kind: EventMissing, Missing: &sig})
}

func (s *channelSink) Warning(ctx context.Context, w Warning) error {
	return s.send(ctx, Event{Kind: EventWarning, Warning: &w})
}

func (s *channelSink) send(ctx context.Context, ev Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- ev:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
