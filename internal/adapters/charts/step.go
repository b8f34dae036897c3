package charts

import (
	"fmt"

	"github.com/Adi0604/Water-Works/internal/domain"
)

// Distribution selects the cumulative totalizer chart of a page.
type Distribution string

const (
	DistributionPie        Distribution = "pie"
	DistributionGroupedBar Distribution = "grouped_bar"
)

// Valid reports whether d names a known distribution chart.
func (d Distribution) Valid() bool {
	return d == DistributionPie || d == DistributionGroupedBar
}

// Step renders every widget for one render event: a gauge per flow reading,
// a bar per totalizer reading, the flow line over the buffer and the
// distribution chart.
func Step(ev domain.RenderEvent, dist Distribution) ([]Artifact, error) {
	ts := ev.Row.Timestamp
	out := make([]Artifact, 0, len(ev.Flow)+len(ev.Totalizer)+2)

	for i, r := range ev.Flow {
		a, err := Gauge(r, ts, i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	for i, r := range ev.Totalizer {
		a, err := TotalizerBar(r, ts, i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if len(ev.Catalog.Flow) > 0 {
		a, err := FlowLine(ev.Buffer, ev.Catalog.Flow[0], ts)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if len(ev.Catalog.Totalizer) > 0 {
		var (
			a   Artifact
			err error
		)
		switch dist {
		case DistributionPie, "":
			a, err = Pie(ev.Buffer, ev.Catalog.Totalizer[0], ts)
		case DistributionGroupedBar:
			a, err = GroupedBar(ev.Buffer, ev.Catalog.Totalizer, ts)
		default:
			return nil, fmt.Errorf("charts: unknown distribution %q", dist)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
