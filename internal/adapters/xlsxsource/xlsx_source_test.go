package xlsxsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Adi0604/Water-Works/internal/ports"
)

type recordingObs struct {
	ports.NopObservability
	warns  []string
	errors float64
}

func (r *recordingObs) LogWarn(msg string, _ ...ports.Field) { r.warns = append(r.warns, msg) }

func (r *recordingObs) IncCounter(name string, v float64) {
	if name == "waterworks_source_errors_total" {
		r.errors += v
	}
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := r
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "Old_rph.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestListAndFetchFromTextTimestamps(t *testing.T) {
	p := writeWorkbook(t, [][]any{
		{"Date and Time", "MO 05 Flow Rate", "MO 05 Totalizer"},
		{"2024-11-05 10:15:00", 455.5, 1200},
		{"2024-11-05 10:00:00", 410, 1100},
		{"2024-11-05 10:15:00", 999, 999},
		{"", 1, 1},
	})

	src, err := New(Options{Location: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	stamps, err := src.ListTimestamps(ctx, "")
	if err != nil {
		t.Fatalf("ListTimestamps: %v", err)
	}
	first := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	second := first.Add(15 * time.Minute)
	if len(stamps) != 2 || !stamps[0].Equal(first) || !stamps[1].Equal(second) {
		t.Fatalf("expected deduplicated ascending timestamps, got %v", stamps)
	}

	row, ok, err := src.FetchRow(ctx, "", second)
	if err != nil || !ok {
		t.Fatalf("FetchRow: ok=%v err=%v", ok, err)
	}
	if row.Value("MO 05 Flow Rate") != 455.5 {
		t.Fatalf("duplicate timestamps must keep the first row, got %f", row.Value("MO 05 Flow Rate"))
	}

	if _, ok, _ := src.FetchRow(ctx, "", second.Add(time.Second)); ok {
		t.Fatalf("expected exact match only")
	}
}

func TestDateCellsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 11, 5, 10, 30, 0, 0, time.UTC)
	p := writeWorkbook(t, [][]any{
		{"Date and Time", "MO 08 Flow Rate"},
		{ts, 300},
	})

	src, _ := New(Options{Location: p})
	stamps, err := src.ListTimestamps(context.Background(), "Sheet1")
	if err != nil {
		t.Fatalf("ListTimestamps: %v", err)
	}
	if len(stamps) != 1 || !stamps[0].Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, stamps)
	}
	row, ok, _ := src.FetchRow(context.Background(), "Sheet1", stamps[0])
	if !ok || row.Value("MO 08 Flow Rate") != 300 {
		t.Fatalf("unexpected row %+v ok=%v", row, ok)
	}
}

func TestMissingTimestampColumn(t *testing.T) {
	p := writeWorkbook(t, [][]any{{"When", "Flow"}, {"2024-11-05 10:00:00", 1}})
	src, _ := New(Options{Location: p})

	if _, err := src.ListTimestamps(context.Background(), ""); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	for _, loc := range []string{"data/Old_rph.csv", "https://example.com/report.xls", "report"} {
		if _, err := New(Options{Location: loc}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", loc, err)
		}
	}
	if err := CheckFormat("https://github.com/Adi0604/Water_Works/raw/refs/heads/main/Old_rph.xlsx"); err != nil {
		t.Fatalf("expected URL with .xlsx path to be accepted: %v", err)
	}
}

func TestMissingFileFailsSoftAndRetries(t *testing.T) {
	p := filepath.Join(t.TempDir(), "later.xlsx")
	src, err := New(Options{Location: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := src.ListTimestamps(context.Background(), ""); err == nil {
		t.Fatalf("expected load error for missing file")
	}

	data, err := os.ReadFile(writeWorkbook(t, [][]any{{"Date and Time", "A"}, {"2024-11-05 10:00:00", 1}}))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	stamps, err := src.ListTimestamps(context.Background(), "")
	if err != nil || len(stamps) != 1 {
		t.Fatalf("expected reload after failure, got %v err=%v", stamps, err)
	}
}

func TestLoadFromURL(t *testing.T) {
	data, err := os.ReadFile(writeWorkbook(t, [][]any{
		{"Date and Time", "MO 06 Flow Rate"},
		{"2024-11-05 10:00:00", 800},
	}))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src, err := New(Options{Location: srv.URL + "/NEW_RPH.xlsx", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 2; i++ {
		stamps, err := src.ListTimestamps(context.Background(), "")
		if err != nil || len(stamps) != 1 {
			t.Fatalf("ListTimestamps: %v %v", stamps, err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected workbook to be downloaded once, got %d", hits.Load())
	}
}

func TestUnreadableTimestampsAreReported(t *testing.T) {
	p := writeWorkbook(t, [][]any{
		{"Date and Time", "MO 09 A Flow Rate"},
		{"2024-11-05 10:00:00", 120},
		{"not a date", 130},
		{"", 140},
		{"2024-11-05 10:15:00", 150},
	})
	obs := &recordingObs{}
	src, _ := New(Options{Location: p, Observability: obs})

	for i := 0; i < 2; i++ {
		stamps, err := src.ListTimestamps(context.Background(), "")
		if err != nil || len(stamps) != 2 {
			t.Fatalf("ListTimestamps: %v %v", stamps, err)
		}
	}
	if obs.errors != 2 {
		t.Fatalf("expected 2 dropped rows counted once, got %v", obs.errors)
	}
	if len(obs.warns) != 1 || obs.warns[0] != "timestamps_dropped" {
		t.Fatalf("expected one drop warning, got %v", obs.warns)
	}
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	data, err := os.ReadFile(writeWorkbook(t, [][]any{
		{"Date and Time", "MO 07 Flow Rate"},
		{"2024-11-05 10:00:00", 610},
	}))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	var hits atomic.Int32
	requested := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		requested <- struct{}{}
		<-release
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	src, err := New(Options{Location: srv.URL + "/NEW_RPH.xlsx", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := src.ListTimestamps(ctx, "")
		firstErr <- err
	}()

	<-requested
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to stop waiting, got %v", err)
	}

	second := make(chan []time.Time, 1)
	go func() {
		stamps, err := src.ListTimestamps(context.Background(), "")
		if err != nil {
			t.Errorf("second caller: %v", err)
		}
		second <- stamps
	}()
	close(release)

	select {
	case stamps := <-second:
		if len(stamps) != 1 {
			t.Fatalf("expected one timestamp, got %v", stamps)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("second caller blocked")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one download shared by both callers, got %d", hits.Load())
	}
}
