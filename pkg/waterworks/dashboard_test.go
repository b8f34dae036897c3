package waterworks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adi0604/Water-Works/internal/clock"
)

const testConfig = `
http: {addr: "127.0.0.1:0"}
sources:
  - {name: plant, kind: xlsx, path: ./testdata/missing.xlsx}
variants:
  - name: Old RPH
    slug: old
    source: plant
    feed: Old_Rph
    flow:
      - {name: MO 05 Flow Rate, max: 1000}
    totalizer:
      - {name: MO 05 Totalizer, max: 1000}
`

var start = time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

func testDashboard(t *testing.T, opts ...DashboardOption) (*Dashboard, *MemorySource) {
	t.Helper()
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	mem := NewMemorySource("plant")
	mem.Add("Old_Rph",
		Row{Timestamp: start, Values: map[string]float64{"MO 05 Flow Rate": 410}},
		Row{Timestamp: start.Add(time.Minute), Values: map[string]float64{"MO 05 Flow Rate": 455}},
	)
	base := []DashboardOption{
		WithSource("plant", mem),
		WithObservability(&stubObservability{}),
		WithClock(clock.NewFake(start)),
		WithMetricsHandler(http.NotFoundHandler()),
	}
	d, err := NewDashboard(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}
	return d, mem
}

func TestNewDashboardWithCustomSource(t *testing.T) {
	d, _ := testDashboard(t)

	pages := d.Pages()
	if len(pages) != 1 || pages[0].Slug != "old" {
		t.Fatalf("unexpected pages %+v", pages)
	}

	var got []Event
	sum, err := d.Replay(context.Background(), "old", NewCallbackSink("cb", func(ev Event) error {
		got = append(got, ev)
		return nil
	}))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if sum.Rendered != 2 || len(got) != 2 || got[1].Render.Flow[0].Value != 455 {
		t.Fatalf("unexpected replay: %+v events=%d", sum, len(got))
	}
	if len(got[1].Render.Buffer) != 2 {
		t.Fatalf("second event should carry both rows, got %d", len(got[1].Render.Buffer))
	}
}

func TestDashboardHandler(t *testing.T) {
	d, _ := testDashboard(t)
	ts := httptest.NewServer(d.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDashboardStartShutdown(t *testing.T) {
	d, _ := testDashboard(t)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNewDashboardRequiresConfig(t *testing.T) {
	if _, err := NewDashboard(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

type stubObservability struct{}

func (s *stubObservability) LogInfo(string, ...Field)         {}
func (s *stubObservability) LogWarn(string, ...Field)         {}
func (s *stubObservability) LogError(string, error, ...Field) {}
func (s *stubObservability) IncCounter(string, float64)       {}
func (s *stubObservability) ObserveLatency(string, float64)   {}
func (s *stubObservability) SetGauge(string, float64)         {}
func (s *stubObservability) RecordMissing(MissingSignal)      {}
