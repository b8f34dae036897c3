package web

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Adi0604/Water-Works/internal/adapters/charts"
	"github.com/Adi0604/Water-Works/internal/app/replay"
	"github.com/Adi0604/Water-Works/internal/app/shell"
	"github.com/Adi0604/Water-Works/internal/domain"
)

const writeWait = 10 * time.Second

// Frame types sent over the page websocket.
const (
	FrameRender  = "render"
	FrameMissing = "missing"
	FrameWarning = "warning"
	FrameDone    = "done"
)

// Frame is one websocket message.
type Frame struct {
	Type      string            `json:"type"`
	Session   string            `json:"session"`
	Seq       int               `json:"seq,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Message   string            `json:"message,omitempty"`
	Artifacts []charts.Artifact `json:"artifacts,omitempty"`
	Row       []string          `json:"row,omitempty"`
	Summary   *DoneSummary      `json:"summary,omitempty"`
}

// DoneSummary closes a session.
type DoneSummary struct {
	Steps    int `json:"steps"`
	Rendered int `json:"rendered"`
	Missing  int `json:"missing"`
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *conn) close(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

// streamSink renders events into charts and pushes them to one browser.
type streamSink struct {
	session string
	page    shell.Page
	conn    *conn
}

func (s *streamSink) Name() string { return "websocket:" + s.session }

func (s *streamSink) Render(_ context.Context, ev domain.RenderEvent) error {
	arts, err := charts.Step(ev, s.page.Distribution)
	if err != nil {
		return err
	}
	return s.conn.writeJSON(Frame{
		Type:      FrameRender,
		Session:   s.session,
		Seq:       ev.Seq,
		Timestamp: ev.Row.Timestamp.Format(time.RFC3339Nano),
		Artifacts: arts,
		Row:       TableRow(ev.Row, ev.Catalog),
	})
}

func (s *streamSink) Missing(_ context.Context, sig domain.MissingSignal) error {
	return s.conn.writeJSON(Frame{
		Type:      FrameMissing,
		Session:   s.session,
		Seq:       sig.Seq,
		Timestamp: sig.Timestamp.Format(time.RFC3339Nano),
		Message:   fmt.Sprintf("No data found for timestamp: %s", sig.Timestamp.Format(tableTimeLayout)),
	})
}

func (s *streamSink) Warning(_ context.Context, w domain.Warning) error {
	return s.conn.writeJSON(Frame{
		Type:    FrameWarning,
		Session: s.session,
		Message: w.Message,
	})
}

func (s *streamSink) done(sum replay.Summary) error {
	return s.conn.writeJSON(Frame{
		Type:    FrameDone,
		Session: s.session,
		Summary: &DoneSummary{Steps: sum.Steps, Rendered: sum.Rendered, Missing: sum.Missing},
	})
}

func warning(p shell.Page, err error) domain.Warning {
	return domain.Warning{Feed: p.Feed, Message: "Replay stopped: " + err.Error()}
}
