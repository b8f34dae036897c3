package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs(zerolog.Nop())

	obs.IncCounter("waterworks_replay_steps_total", 3)
	if got := testutil.ToFloat64(obs.counters["waterworks_replay_steps_total"]); got != 3 {
		t.Fatalf("expected steps counter 3, got %f", got)
	}

	obs.IncCounter("waterworks_unknown_total", 1)

	obs.SetGauge("waterworks_display_buffer_rows", 42)
	if got := testutil.ToFloat64(obs.gauges["waterworks_display_buffer_rows"]); got != 42 {
		t.Fatalf("expected buffer gauge 42, got %f", got)
	}

	obs.ObserveLatency("waterworks_fetch_latency_seconds", 0.5)
	hCollector := obs.histos["waterworks_fetch_latency_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.RecordMissing(domain.MissingSignal{Seq: 2, Feed: "Old_Rph", Timestamp: time.Unix(0, 0)})
	if got := testutil.ToFloat64(obs.counters["waterworks_rows_missing_total"]); got != 1 {
		t.Fatalf("expected missing counter 1, got %f", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 7 {
		t.Fatalf("expected 7 registered metrics, got %d (%v)", n, err)
	}
}

func TestPromObsSharesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPromObsWith(reg, zerolog.Nop())
	second := NewPromObsWith(reg, zerolog.Nop())

	first.IncCounter("waterworks_replay_steps_total", 2)
	second.IncCounter("waterworks_replay_steps_total", 1)
	second.SetGauge("waterworks_active_sessions", 4)
	second.ObserveLatency("waterworks_fetch_latency_seconds", 0.01)

	if got := testutil.ToFloat64(first.counters["waterworks_replay_steps_total"]); got != 3 {
		t.Fatalf("expected shared steps counter 3, got %f", got)
	}
	if got := testutil.ToFloat64(first.gauges["waterworks_active_sessions"]); got != 4 {
		t.Fatalf("expected shared sessions gauge 4, got %f", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 7 {
		t.Fatalf("expected 7 registered metrics, got %d (%v)", n, err)
	}
}

func TestPromObsConflictingRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "waterworks_replay_steps_total",
		Help: "Not a counter.",
	}))

	var out bytes.Buffer
	obs := NewPromObsWith(reg, zerolog.New(&out))
	obs.IncCounter("waterworks_replay_steps_total", 1)

	if !strings.Contains(out.String(), "metric_register_failed") {
		t.Fatalf("expected registration warning, got %q", out.String())
	}
}

func TestPromObsLogsStructuredFields(t *testing.T) {
	var out bytes.Buffer
	obs := NewPromObsWith(prometheus.NewRegistry(), zerolog.New(&out))

	obs.LogError("fetch_row_failed", errors.New("boom"), ports.Field{Key: "feed", Value: "Old_Rph"})

	var line map[string]any
	if err := json.Unmarshal(out.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, out.String())
	}
	if line["level"] != "error" || line["message"] != "fetch_row_failed" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["error"] != "boom" || line["feed"] != "Old_Rph" {
		t.Fatalf("missing fields in %v", line)
	}
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger, err := NewLogger(&out, "warn", "json")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "shown") {
		t.Fatalf("level not applied: %s", out.String())
	}

	if _, err := NewLogger(&out, "loud", "json"); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := NewLogger(&out, "info", "xml"); err == nil {
		t.Fatalf("expected error for bad format")
	}
}
