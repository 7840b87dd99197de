// Package render produces per-sample image artifacts: a real display
// capture pulled from the instrument, and a synthetic metadata card used
// both as the capture fallback and as the per-cycle frame.
package render

import "time"

// Metadata describes one sample. Nil fields render as absent, they are
// never substituted with made-up values.
type Metadata struct {
	Title     string
	Taken     time.Time
	Latitude  *float64
	Longitude *float64
	Bearing   *float64 // degrees, nil for a non-directive antenna
	Power     *float64 // dBm
	Frequency *float64 // Hz, optional
}

// Renderer writes one artifact for a sample.
type Renderer interface {
	Render(meta Metadata, path string) error
}
