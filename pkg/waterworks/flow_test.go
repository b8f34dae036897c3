package waterworks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adi0604/Water-Works/internal/clock"
)

func TestConfFromConfigAndBuilder(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithClock(clock.NewFake(start))))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	mem := NewMemorySource("plant")
	mem.Add("Old_Rph", Row{Timestamp: start, Values: map[string]float64{"MO 05 Totalizer": 7}})

	var events []Event
	sum, err := flow.
		Sources(
			SourceOverride("plant", mem),
			SourceObservability(&stubObservability{}),
		).
		Replay(context.Background(), "old", NewCallbackSink("cb", func(ev Event) error {
			events = append(events, ev)
			return nil
		}))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if sum.Steps != 1 || len(events) != 1 || events[0].Render.Totalizer[0].Value != 7 {
		t.Fatalf("unexpected replay %+v %+v", sum, events)
	}
}

func TestFlowReplayTwiceWithDefaultObservability(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	mem := NewMemorySource("plant")
	mem.Add("Old_Rph",
		Row{Timestamp: start, Values: map[string]float64{"MO 05 Flow Rate": 410}},
		Row{Timestamp: start.Add(time.Minute), Values: map[string]float64{"MO 05 Flow Rate": 455}},
	)

	for i := 0; i < 2; i++ {
		flow, err := ConfFromConfig(cfg, WithFlowOptions(WithClock(clock.NewFake(start))))
		if err != nil {
			t.Fatalf("ConfFromConfig: %v", err)
		}
		sum, err := flow.
			Sources(SourceOverride("plant", mem)).
			Replay(context.Background(), "old", NewCallbackSink("cb", func(Event) error { return nil }))
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if sum.Rendered != 2 {
			t.Fatalf("replay %d rendered %d rows", i, sum.Rendered)
		}
	}

	if n, err := testutil.GatherAndCount(reg, "waterworks_replay_steps_total"); err != nil || n != 1 {
		t.Fatalf("expected one shared steps series, got %d (%v)", n, err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "waterworks_replay_steps_total" {
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 4 {
				t.Fatalf("expected 4 steps across both dashboards, got %f", got)
			}
			return
		}
	}
	t.Fatalf("steps counter not gathered")
}

func TestFlowReplayUnknownPage(t *testing.T) {
	cfg, _ := ParseConfig([]byte(testConfig))
	flow, _ := ConfFromConfig(cfg)
	_, err := flow.
		Sources(SourceOverride("plant", NewMemorySource("plant")), SourceObservability(&stubObservability{})).
		Replay(context.Background(), "nope", NewCallbackSink("cb", func(Event) error { return nil }))
	if err == nil {
		t.Fatalf("expected error for unknown page")
	}
}

func TestNilFlow(t *testing.T) {
	var f *Flow
	if _, err := f.Build(); err == nil {
		t.Fatalf("expected error from nil flow")
	}
	if f.Sources() != nil || f.Options() != nil {
		t.Fatalf("nil flow should stay nil")
	}
}
