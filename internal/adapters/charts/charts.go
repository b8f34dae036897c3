// Package charts turns replay output into echarts option documents using
// go-echarts. Every function here is pure: the same input yields the same
// artifact bytes.
package charts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Adi0604/Water-Works/internal/domain"
)

// Kind identifies the widget an artifact is drawn into.
type Kind string

const (
	KindGauge      Kind = "gauge"
	KindBar        Kind = "bar"
	KindLine       Kind = "line"
	KindPie        Kind = "pie"
	KindGroupedBar Kind = "grouped_bar"
)

const (
	gaugeBarColor   = "#009879"
	totalizerColor  = "#0074d9"
	backgroundColor = "#28282B"
	thresholdColor  = "red"
	labelLayout     = "2006-01-02 15:04:05"

	lineTitle    = "Flow Rates Over Time"
	pieTitle     = "Flow Rate Distribution"
	groupedTitle = "Flow Rates Grouped by Timestamp"
)

// StepColors are the gauge band colours from low to high.
var StepColors = [3]string{"#f4f4f4", "#d9f4ff", "#0074d9"}

// Band is one coloured range of a gauge axis.
type Band struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// Annotation marks a point of a line chart.
type Annotation struct {
	Label string  `json:"label"`
	X     string  `json:"x"`
	Y     float64 `json:"y"`
}

// Artifact is a rendered widget: echarts options plus the values a page
// needs to draw around them.
type Artifact struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Slot        string          `json:"slot"`
	Title       string          `json:"title"`
	Options     json.RawMessage `json:"options"`
	Percent     *float64        `json:"percent,omitempty"`
	Label       string          `json:"label,omitempty"`
	Bands       []Band          `json:"bands,omitempty"`
	Annotations []Annotation    `json:"annotations,omitempty"`
}

// ChartID keys an artifact by kind, timestamp and position so widgets of
// different steps never share an identity.
func ChartID(kind Kind, ts time.Time, index int) string {
	stamp := strings.Replace(ts.UTC().Format("20060102T150405.000"), ".", "", 1)
	return fmt.Sprintf("%s_%s_%d", kind, stamp, index)
}

// Slot is the stable placeholder name an artifact replaces on the page.
func Slot(kind Kind, index int) string {
	return fmt.Sprintf("%s-%d", kind, index)
}

// GaugeBands splits [0, max] at 50% and 80% of max.
func GaugeBands(max float64) []Band {
	mid, high := max/2, max*0.8
	return []Band{
		{From: 0, To: mid, Color: StepColors[0]},
		{From: mid, To: high, Color: StepColors[1]},
		{From: high, To: max, Color: StepColors[2]},
	}
}

// PercentLabel formats a gauge percentage with one decimal.
func PercentLabel(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// Gauge renders one flow reading. The percentage annotation is not clamped.
func Gauge(r domain.Reading, ts time.Time, index int) (Artifact, error) {
	g := charts.NewGauge()
	g.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: r.Metric.Name}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:         ChartID(KindGauge, ts, index),
			Width:           "450px",
			Height:          "350px",
			BackgroundColor: backgroundColor,
		}),
	)
	g.AddSeries(r.Metric.Name, []opts.GaugeData{{Name: r.Metric.Name, Value: r.Value}})
	g.Validate()

	bands := GaugeBands(r.Metric.Max)
	stops := make([][]any, len(bands))
	for i, b := range bands {
		frac := 1.0
		if r.Metric.Max > 0 {
			frac = b.To / r.Metric.Max
		}
		stops[i] = []any{frac, b.Color}
	}
	raw, err := patchFirstSeries(g.JSON(), map[string]any{
		"min":      0,
		"max":      r.Metric.Max,
		"progress": map[string]any{"show": true, "itemStyle": map[string]any{"color": gaugeBarColor}},
		"axisLine": map[string]any{"lineStyle": map[string]any{"color": stops}},
		"pointer":  map[string]any{"itemStyle": map[string]any{"color": thresholdColor}, "width": 4},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("gauge %s: %w", r.Metric.Name, err)
	}

	pct := r.Percent
	return Artifact{
		ID:      ChartID(KindGauge, ts, index),
		Kind:    KindGauge,
		Slot:    Slot(KindGauge, index),
		Title:   r.Metric.Name,
		Options: raw,
		Percent: &pct,
		Label:   PercentLabel(pct),
		Bands:   bands,
	}, nil
}

// TotalizerBar renders one totalizer reading as a single bar.
func TotalizerBar(r domain.Reading, ts time.Time, index int) (Artifact, error) {
	raw, err := encode(newTotalizerBar(r, ts, index))
	if err != nil {
		return Artifact{}, fmt.Errorf("bar %s: %w", r.Metric.Name, err)
	}
	return Artifact{
		ID:      ChartID(KindBar, ts, index),
		Kind:    KindBar,
		Slot:    Slot(KindBar, index),
		Title:   r.Metric.Name + " Bar Chart",
		Options: raw,
	}, nil
}

func newTotalizerBar(r domain.Reading, ts time.Time, index int) *charts.Bar {
	b := charts.NewBar()
	b.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: r.Metric.Name + " Bar Chart"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Totalizer", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value", Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: ChartID(KindBar, ts, index),
			Width:   "400px",
			Height:  "300px",
		}),
	)
	b.SetXAxis([]string{r.Metric.Name})
	b.AddSeries(r.Metric.Name, []opts.BarData{{Value: r.Value}},
		charts.WithItemStyleOpts(opts.ItemStyle{Color: totalizerColor}),
	)
	return b
}

// FlowLine draws metric over the whole buffer, marking its high and low.
func FlowLine(buffer []domain.Row, metric domain.Metric, ts time.Time) (Artifact, error) {
	raw, err := encode(newFlowLine(buffer, metric, ts))
	if err != nil {
		return Artifact{}, fmt.Errorf("line %s: %w", metric.Name, err)
	}

	x := labels(buffer)
	var notes []Annotation
	if ext, ok := Extremes(buffer, metric.Name); ok {
		notes = []Annotation{
			{Label: fmt.Sprintf("High: %.2f", ext.High), X: x[ext.HighIndex], Y: ext.High},
			{Label: fmt.Sprintf("Low: %.2f", ext.Low), X: x[ext.LowIndex], Y: ext.Low},
		}
	}
	return Artifact{
		ID:          ChartID(KindLine, ts, 0),
		Kind:        KindLine,
		Slot:        Slot(KindLine, 0),
		Title:       lineTitle,
		Options:     raw,
		Annotations: notes,
	}, nil
}

func newFlowLine(buffer []domain.Row, metric domain.Metric, ts time.Time) *charts.Line {
	x := labels(buffer)
	data := make([]opts.LineData, len(buffer))
	for i, r := range buffer {
		data[i] = opts.LineData{Value: r.Value(metric.Name)}
	}

	l := charts.NewLine()
	l.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: lineTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: domain.TimestampKey, Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: metric.Name, Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: ChartID(KindLine, ts, 0),
			Width:   "800px",
			Height:  "450px",
		}),
	)
	l.SetXAxis(x)
	l.AddSeries(metric.Name, data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "blue"}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "High", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Low", Type: "min"},
		),
	)
	return l
}

// Pie shows how one totalizer is distributed across the buffered timestamps.
func Pie(buffer []domain.Row, metric domain.Metric, ts time.Time) (Artifact, error) {
	raw, err := encode(newPie(buffer, metric, ts))
	if err != nil {
		return Artifact{}, fmt.Errorf("pie %s: %w", metric.Name, err)
	}
	return Artifact{
		ID:      ChartID(KindPie, ts, 0),
		Kind:    KindPie,
		Slot:    Slot(KindPie, 0),
		Title:   pieTitle,
		Options: raw,
	}, nil
}

func newPie(buffer []domain.Row, metric domain.Metric, ts time.Time) *charts.Pie {
	x := labels(buffer)
	data := make([]opts.PieData, len(buffer))
	for i, r := range buffer {
		data[i] = opts.PieData{Name: x[i], Value: r.Value(metric.Name)}
	}

	p := charts.NewPie()
	p.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: pieTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: ChartID(KindPie, ts, 0),
			Width:   "500px",
			Height:  "400px",
		}),
	)
	p.AddSeries(metric.Name, data)
	return p
}

// GroupedBar plots every totalizer side by side for each buffered timestamp.
func GroupedBar(buffer []domain.Row, metrics []domain.Metric, ts time.Time) (Artifact, error) {
	raw, err := encode(newGroupedBar(buffer, metrics, ts))
	if err != nil {
		return Artifact{}, fmt.Errorf("grouped bar: %w", err)
	}
	return Artifact{
		ID:      ChartID(KindGroupedBar, ts, 0),
		Kind:    KindGroupedBar,
		Slot:    Slot(KindGroupedBar, 0),
		Title:   groupedTitle,
		Options: raw,
	}, nil
}

func newGroupedBar(buffer []domain.Row, metrics []domain.Metric, ts time.Time) *charts.Bar {
	b := charts.NewBar()
	b.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: groupedTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: domain.TimestampKey, Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Values", Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: ChartID(KindGroupedBar, ts, 0),
			Width:   "700px",
			Height:  "400px",
		}),
	)
	b.SetXAxis(labels(buffer))
	for _, m := range metrics {
		data := make([]opts.BarData, len(buffer))
		for i, r := range buffer {
			data[i] = opts.BarData{Value: r.Value(m.Name)}
		}
		b.AddSeries(m.Name, data)
	}
	return b
}

type validator interface {
	Validate()
	JSON() map[string]interface{}
}

func encode(c validator) (json.RawMessage, error) {
	c.Validate()
	return json.Marshal(c.JSON())
}

// patchFirstSeries merges extra keys into the first series of an options
// document, for settings go-echarts does not model.
func patchFirstSeries(doc map[string]interface{}, extra map[string]any) (json.RawMessage, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	series, _ := generic["series"].([]any)
	if len(series) == 0 {
		return nil, fmt.Errorf("options have no series")
	}
	first, _ := series[0].(map[string]any)
	if first == nil {
		return nil, fmt.Errorf("unexpected series shape")
	}
	for k, v := range extra {
		first[k] = v
	}
	return json.Marshal(generic)
}

func labels(buffer []domain.Row) []string {
	out := make([]string, len(buffer))
	for i, r := range buffer {
		out[i] = r.Timestamp.Format(labelLayout)
	}
	return out
}
