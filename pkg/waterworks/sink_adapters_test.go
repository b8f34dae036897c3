package waterworks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func renderEvent() RenderEvent {
	row := Row{Timestamp: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), Values: map[string]float64{"MO 08 Totalizer": 1234567.891}}
	return RenderEvent{
		Seq:     3,
		Row:     row,
		Buffer:  []Row{row},
		Catalog: Catalog{Totalizer: []Metric{{Name: "MO 08 Totalizer", Max: 1000}}},
	}
}

func TestNewCallbackSink(t *testing.T) {
	var received []Event
	sink := NewCallbackSink("cb", func(ev Event) error {
		received = append(received, ev)
		return nil
	})

	ctx := context.Background()
	if err := sink.Render(ctx, renderEvent()); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if err := sink.Missing(ctx, MissingSignal{Seq: 4}); err != nil {
		t.Fatalf("Missing returned error: %v", err)
	}
	if err := sink.Warning(ctx, Warning{Message: "down"}); err != nil {
		t.Fatalf("Warning returned error: %v", err)
	}
	if len(received) != 3 {
		t.Fatalf("expected 3 events, got %d", len(received))
	}
	if received[0].Kind != EventRender || received[0].Render.Seq != 3 {
		t.Fatalf("unexpected render event %+v", received[0])
	}
	if received[1].Missing.Seq != 4 || received[2].Warning.Message != "down" {
		t.Fatalf("unexpected events %+v %+v", received[1], received[2])
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Render(context.Background(), renderEvent()); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %q", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sink.Render(context.Background(), renderEvent())
	}()

	var ev Event
	select {
	case ev = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel event")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if ev.Kind != EventRender || ev.Render.Seq != 3 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	closeFn()
	if err := sink.Missing(context.Background(), MissingSignal{}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkHonoursContext(t *testing.T) {
	sink, _, closeFn := NewChannelSink("chan", 0)
	defer closeFn()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Warning(ctx, Warning{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLineSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewLineSink(&out)
	ctx := context.Background()
	_ = sink.Render(ctx, renderEvent())
	_ = sink.Missing(ctx, MissingSignal{Seq: 4, Timestamp: time.Date(2024, 3, 1, 8, 45, 0, 0, time.UTC)})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if lines[0] != "#3 2024-03-01 08:30:00 MO 08 Totalizer=1,234,567.89" {
		t.Fatalf("unexpected render line %q", lines[0])
	}
	if lines[1] != "#4 2024-03-01 08:45:00 no data found" {
		t.Fatalf("unexpected missing line %q", lines[1])
	}
}
