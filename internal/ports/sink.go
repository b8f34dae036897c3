package ports

import (
	"context"

	"github.com/Adi0604/Water-Works/internal/domain"
)

// EventSink consumes the output of a replay run. Returning an error stops
// the run.
type EventSink interface {
	Render(ctx context.Context, ev domain.RenderEvent) error
	Missing(ctx context.Context, sig domain.MissingSignal) error
	Name() string
}

// SessionSink is an EventSink that can also show warnings to the viewer.
type SessionSink interface {
	EventSink
	Warning(ctx context.Context, w domain.Warning) error
}
