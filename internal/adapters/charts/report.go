package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/Adi0604/Water-Works/internal/domain"
)

// WriteReport renders a standalone HTML page of the final state of a run:
// the flow line, the distribution chart and the last totalizer bars.
func WriteReport(w io.Writer, title string, buffer []domain.Row, cat domain.Catalog, dist Distribution) error {
	if len(buffer) == 0 {
		return fmt.Errorf("charts: report needs at least one row")
	}
	last := buffer[len(buffer)-1]
	ts := last.Timestamp

	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)

	if len(cat.Flow) > 0 {
		page.AddCharts(newFlowLine(buffer, cat.Flow[0], ts))
	}
	if len(cat.Totalizer) > 0 {
		switch dist {
		case DistributionGroupedBar:
			page.AddCharts(newGroupedBar(buffer, cat.Totalizer, ts))
		default:
			page.AddCharts(newPie(buffer, cat.Totalizer[0], ts))
		}
	}
	for i, r := range domain.ResolveAll(last, cat.Totalizer) {
		page.AddCharts(newTotalizerBar(r, ts, i))
	}
	return page.Render(w)
}
