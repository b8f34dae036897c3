package domain

import "time"

// RenderEvent is what the replay engine hands to renderers for every
// timestamp that produced a row.
type RenderEvent struct {
	Seq       int       `json:"seq"`
	Feed      string    `json:"feed"`
	Row       Row       `json:"row"`
	Buffer    []Row     `json:"buffer"`
	Catalog   Catalog   `json:"catalog"`
	Flow      []Reading `json:"flow"`
	Totalizer []Reading `json:"totalizer"`
}

// MissingSignal reports a timestamp for which the source returned no row.
type MissingSignal struct {
	Seq       int       `json:"seq"`
	Feed      string    `json:"feed"`
	Timestamp time.Time `json:"timestamp"`
}

// Warning is a user-visible notice that a feed could not be replayed.
type Warning struct {
	Feed    string `json:"feed"`
	Message string `json:"message"`
}
