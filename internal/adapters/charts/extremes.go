package charts

import "github.com/Adi0604/Water-Works/internal/domain"

// Extents holds the highest and lowest value of a metric and where they sit
// in the buffer. Ties resolve to the earliest row.
type Extents struct {
	High, Low           float64
	HighIndex, LowIndex int
}

// Extremes scans buffer for metric. ok is false for an empty buffer.
func Extremes(buffer []domain.Row, metric string) (ext Extents, ok bool) {
	if len(buffer) == 0 {
		return Extents{}, false
	}
	first := buffer[0].Value(metric)
	ext = Extents{High: first, Low: first}
	for i := 1; i < len(buffer); i++ {
		v := buffer[i].Value(metric)
		if v > ext.High {
			ext.High, ext.HighIndex = v, i
		}
		if v < ext.Low {
			ext.Low, ext.LowIndex = v, i
		}
	}
	return ext, true
}
