package domain

// Metric describes one gauge or bar: the column it reads and its declared
// full-scale value. Descriptors are static configuration.
type Metric struct {
	Name string  `yaml:"name" json:"name"`
	Max  float64 `yaml:"max" json:"max"`
}

// Catalog groups the metrics displayed for one facility variant.
type Catalog struct {
	Flow      []Metric `yaml:"flow" json:"flow"`
	Totalizer []Metric `yaml:"totalizer" json:"totalizer"`
}

// Reading is a metric resolved against a row.
type Reading struct {
	Metric  Metric  `json:"metric"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Resolve reads m from r, defaulting to zero when the row has no such column.
// Percent is Value relative to Max and is deliberately not clamped.
func Resolve(r Row, m Metric) Reading {
	v := r.Value(m.Name)
	return Reading{Metric: m, Value: v, Percent: Percent(v, m.Max)}
}

// ResolveAll resolves every metric of ms against r, preserving order.
func ResolveAll(r Row, ms []Metric) []Reading {
	out := make([]Reading, len(ms))
	for i, m := range ms {
		out[i] = Resolve(r, m)
	}
	return out
}

// Percent returns value / max * 100. A non-positive max yields 0.
func Percent(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return value / max * 100
}
