// Package storage provides an optional sqlite archive mirroring the text
// sample logs. The text log stays the authoritative output; the archive
// exists for ad hoc querying of past runs.
package storage

import (
	"context"
	"database/sql"
	"time"
)

// Archive stores acquisition sessions and their samples.
// All write operations are atomic.
type Archive interface {
	// CreateSession registers a new acquisition run and returns its ID.
	CreateSession(ctx context.Context, mode, instrument string) (sessionID int64, err error)

	// StoreSample saves one continuous-mode sample. Absent fields travel
	// as invalid Null values, they are never defaulted.
	StoreSample(ctx context.Context, sessionID int64, s SampleRecord) error

	// StoreSweepSample saves one sweep-mode bearing/power pair.
	StoreSweepSample(ctx context.Context, sessionID int64, s SweepRecord) error

	// Close releases the database resources. Safe to call multiple times.
	Close() error
}

// SampleRecord is one continuous-mode sample row.
type SampleRecord struct {
	Timestamp time.Time
	Power     sql.NullFloat64 // dBm
	Bearing   sql.NullFloat64 // degrees, invalid for a non-directive antenna
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
}

// SweepRecord is one sweep-mode sample row. Both values are always present:
// partial sweep readings are discarded before they reach storage.
type SweepRecord struct {
	Timestamp time.Time
	Bearing   float64
	Power     float64
}
