// Package web serves the dashboard pages and streams replay sessions to the
// browser over websockets.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Adi0604/Water-Works/internal/app/shell"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// PageCookie stores the active page of a browser.
const PageCookie = "waterworks_page"

const pingPeriod = 30 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type Server struct {
	shell    *shell.Shell
	obs      ports.Observability
	metrics  http.Handler
	upgrader websocket.Upgrader
	sessions atomic.Int64
}

type Option func(*Server)

func WithObservability(obs ports.Observability) Option {
	return func(s *Server) { s.obs = obs }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func NewServer(sh *shell.Shell, opts ...Option) *Server {
	s := &Server{
		shell: sh,
		obs:   nopObs{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /pages/{slug}", s.handlePage)
	mux.HandleFunc("GET /ws/{slug}", s.handleStream)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	return mux
}

func (s *Server) viewState(r *http.Request) shell.ViewState {
	var st shell.ViewState
	if c, err := r.Cookie(PageCookie); err == nil {
		st.ActivePage = c.Value
	}
	return st
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := s.shell.Active(s.viewState(r))
	http.Redirect(w, r, "/pages/"+p.Slug, http.StatusFound)
}

type navItem struct {
	Name, Slug string
	Active     bool
}

type pageView struct {
	Title  string
	Slug   string
	Nav    []navItem
	Flow   []int
	Totals []int
	Header []string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := s.viewState(r)
	p, err := s.shell.Select(&st, r.PathValue("slug"))
	if errors.Is(err, shell.ErrUnknownPage) {
		http.NotFound(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     PageCookie,
		Value:    st.ActivePage,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	view := pageView{
		Title:  p.Name,
		Slug:   p.Slug,
		Flow:   indexes(len(p.Catalog.Flow)),
		Totals: indexes(len(p.Catalog.Totalizer)),
		Header: TableHeader(p.Catalog),
	}
	for _, other := range s.shell.Pages() {
		view.Nav = append(view.Nav, navItem{Name: other.Name, Slug: other.Slug, Active: other.Slug == p.Slug})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, view); err != nil {
		s.obs.LogError("render_page_failed", err, ports.Field{Key: "page", Value: p.Slug})
	}
}

// handleStream runs a fresh replay of the page for this connection. The run
// is cancelled as soon as the browser goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	p, err := s.shell.Page(r.PathValue("slug"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.obs.LogWarn("websocket_upgrade_failed", ports.Field{Key: "error", Value: err.Error()})
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{ws: ws}
	sink := &streamSink{session: uuid.New().String(), page: p, conn: c}

	s.obs.SetGauge("waterworks_active_sessions", float64(s.sessions.Add(1)))
	defer func() {
		s.obs.SetGauge("waterworks_active_sessions", float64(s.sessions.Add(-1)))
	}()
	s.obs.LogInfo("session_started",
		ports.Field{Key: "session", Value: sink.session},
		ports.Field{Key: "page", Value: p.Slug},
	)

	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := c.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	sum, err := s.shell.Run(ctx, p.Slug, sink)
	switch {
	case ctx.Err() != nil:
		s.obs.LogInfo("session_cancelled",
			ports.Field{Key: "session", Value: sink.session},
			ports.Field{Key: "steps", Value: sum.Steps},
		)
		return
	case err != nil:
		s.obs.LogError("session_failed", err, ports.Field{Key: "session", Value: sink.session})
		_ = sink.Warning(ctx, warning(p, err))
	default:
		_ = sink.done(sum)
	}
	c.close(websocket.CloseNormalClosure, "")
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
