package domain

import (
	"encoding/json"
	"time"
)

// TimestampKey is the reserved key under which a Row carries its timestamp
// when it is flattened next to its metric values.
const TimestampKey = "Date and Time"

// Row is one reading of a feed: every metric value recorded at Timestamp.
// Rows are created once by a data source and never mutated afterwards.
type Row struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Value resolves a metric by name. Missing metrics read as zero.
func (r Row) Value(name string) float64 {
	return r.Values[name]
}

// Has reports whether the row carries a value for name.
func (r Row) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

// MarshalJSON flattens the row into a single object keyed by metric name,
// with the timestamp stored under TimestampKey.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		flat[k] = v
	}
	flat[TimestampKey] = r.Timestamp
	return json.Marshal(flat)
}

// Buffer is the append-only display history of a single replay run.
type Buffer struct {
	rows []Row
}

// Append adds the newest row at the end of the buffer.
func (b *Buffer) Append(r Row) {
	b.rows = append(b.rows, r)
}

// Len returns the number of buffered rows.
func (b *Buffer) Len() int {
	return len(b.rows)
}

// Snapshot returns the rows buffered so far. The returned slice is capped at
// its length so later appends can never write into it.
func (b *Buffer) Snapshot() []Row {
	return b.rows[:len(b.rows):len(b.rows)]
}
