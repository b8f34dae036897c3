package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestResolveMissingMetricIsZero(t *testing.T) {
	r := Row{Timestamp: time.Now(), Values: map[string]float64{"A": 10}}

	got := Resolve(r, Metric{Name: "B", Max: 1000})
	if got.Value != 0 || got.Percent != 0 {
		t.Fatalf("expected zero reading for absent metric, got %+v", got)
	}

	var empty Row
	if v := empty.Value("A"); v != 0 {
		t.Fatalf("expected zero from row without values, got %f", v)
	}
}

func TestPercentIsNotClamped(t *testing.T) {
	got := Resolve(Row{Values: map[string]float64{"MO 05 Flow Rate": 1200}}, Metric{Name: "MO 05 Flow Rate", Max: 1000})
	if got.Percent != 120 {
		t.Fatalf("expected 120%%, got %f", got.Percent)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	r := Row{Values: map[string]float64{"x": 1, "y": 2}}
	got := ResolveAll(r, []Metric{{Name: "y", Max: 4}, {Name: "x", Max: 4}, {Name: "z", Max: 4}})
	if len(got) != 3 || got[0].Value != 2 || got[1].Value != 1 || got[2].Value != 0 {
		t.Fatalf("unexpected readings %+v", got)
	}
}

func TestRowMarshalJSONReservedKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	b, err := json.Marshal(Row{Timestamp: ts, Values: map[string]float64{"MO 08 Totalizer": 5}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Date and Time":"2024-03-01T08:30:00Z","MO 08 Totalizer":5}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestBufferSnapshotIsStable(t *testing.T) {
	var b Buffer
	b.Append(Row{Values: map[string]float64{"A": 1}})
	snap := b.Snapshot()

	b.Append(Row{Values: map[string]float64{"A": 2}})
	b.Append(Row{Values: map[string]float64{"A": 3}})

	if len(snap) != 1 || snap[0].Value("A") != 1 {
		t.Fatalf("snapshot changed after append: %+v", snap)
	}
	if b.Len() != 3 {
		t.Fatalf("expected 3 buffered rows, got %d", b.Len())
	}
}
