package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      mode,
                      instrument)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	insertSampleSQL = `
INSERT INTO samples (session_id,
                     timestamp,
                     power,
                     bearing,
                     latitude,
                     longitude)
VALUES (?, ?, ?, ?, ?, ?)`

	insertSweepSampleSQL = `
INSERT INTO sweep_samples (session_id,
                           timestamp,
                           bearing,
                           power)
VALUES (?, ?, ?, ?)`
)

//go:embed schema.sql
var schemaSQL string
