// Package cadence holds the live-reconfigurable sampling interval and the
// datagram listener that mutates it while a run is in progress.
package cadence

import (
	"sync"
	"time"
)

// Cell is the shared sampling interval. It is written by the UDP listener
// and read by the sampling loop at every cycle boundary.
type Cell struct {
	mu sync.Mutex
	d  time.Duration
}

// NewCell creates a cell with the initial interval. A non-positive initial
// value falls back to the given default.
func NewCell(initial, fallback time.Duration) *Cell {
	if initial <= 0 {
		initial = fallback
	}
	return &Cell{d: initial}
}

// Get returns the current interval.
func (c *Cell) Get() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.d
}

// Set replaces the interval. Non-positive values are rejected and the
// previous interval is retained.
func (c *Cell) Set(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.d = d
	return true
}
