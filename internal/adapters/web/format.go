package web

import (
	"github.com/dustin/go-humanize"

	"github.com/Adi0604/Water-Works/internal/domain"
)

const tableTimeLayout = "2006-01-02 15:04:05"

// FormatValue renders a reading with thousands separators and two decimals.
func FormatValue(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// TableHeader lists the columns of the buffer table for a catalog.
func TableHeader(cat domain.Catalog) []string {
	out := make([]string, 0, 1+len(cat.Flow)+len(cat.Totalizer))
	out = append(out, domain.TimestampKey)
	for _, m := range cat.Flow {
		out = append(out, m.Name)
	}
	for _, m := range cat.Totalizer {
		out = append(out, m.Name)
	}
	return out
}

// TableRow formats r in TableHeader order.
func TableRow(r domain.Row, cat domain.Catalog) []string {
	out := make([]string, 0, 1+len(cat.Flow)+len(cat.Totalizer))
	out = append(out, r.Timestamp.Format(tableTimeLayout))
	for _, m := range cat.Flow {
		out = append(out, FormatValue(r.Value(m.Name)))
	}
	for _, m := range cat.Totalizer {
		out = append(out, FormatValue(r.Value(m.Name)))
	}
	return out
}
