package instrument

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// Sample is one continuous-mode acquisition cycle's worth of readings.
// Nil fields were unavailable that cycle; they render as absent tokens,
// never as invented values.
type Sample struct {
	Taken     time.Time
	Power     *float64 // dBm
	Bearing   *float64 // degrees, nil for a non-directive antenna
	Latitude  *float64
	Longitude *float64
}

// Line renders the fixed-schema log line:
// date,time,power_dBm,bearing,latitude,longitude. The power column renders
// the literal NaN token when absent so the column count stays stable.
func (s Sample) Line() string {
	power := math.NaN()
	if s.Power != nil {
		power = *s.Power
	}

	bearing := "non-directive"
	if s.Bearing != nil && !math.IsNaN(*s.Bearing) && !math.IsInf(*s.Bearing, 0) {
		bearing = fmt.Sprintf("%.1f", *s.Bearing)
	}

	return fmt.Sprintf("%s,%s,%s,%s,%s,%s\n",
		s.Taken.Format("2006-01-02"),
		s.Taken.Format("15:04:05"),
		strconv.FormatFloat(power, 'f', -1, 64),
		bearing,
		formatCoord(s.Latitude),
		formatCoord(s.Longitude),
	)
}

func formatCoord(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}

// appendLine appends one record to the log. Samples are written in strict
// issuance order, one line per call, no buffering.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	if _, err = f.WriteString(line); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// truncateLog recreates the log empty: every run starts a fresh measurement.
func truncateLog(path string) error {
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("truncating log: %w", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
