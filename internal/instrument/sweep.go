package instrument

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/field-receiver/internal/cadence"
	"github.com/roman-kulish/field-receiver/internal/catalog"
	"github.com/roman-kulish/field-receiver/internal/scpi"
	"github.com/roman-kulish/field-receiver/internal/storage"
)

const (
	// DefaultFixWait bounds the initial wait for a position fix.
	DefaultFixWait = 8 * time.Second

	// fixPollInterval is the fast inner cadence of the fix wait.
	fixPollInterval = 500 * time.Millisecond
)

// WithSweepLogger sets the logger for the sweep.
func WithSweepLogger(logger *slog.Logger) func(*Sweep) {
	return func(s *Sweep) {
		s.logger = logger.With(slog.String("mode", "sweep"))
	}
}

// WithSweepArchive mirrors sweep samples into the archive.
func WithSweepArchive(archive storage.Archive) func(*Sweep) {
	return func(s *Sweep) {
		s.archive = archive
	}
}

// WithFixWait sets the bounded wait for the initial position fix.
func WithFixWait(d time.Duration) func(*Sweep) {
	return func(s *Sweep) {
		if d > 0 {
			s.fixWait = d
		}
	}
}

// Sweep is the stationary azimuth sweep engine. It records one optional
// position header, then bearing/power pairs. Only complete pairs are
// recorded: a cycle missing either reading writes nothing.
type Sweep struct {
	cfg      Config
	commands catalog.Set
	cadence  *cadence.Cell
	logPath  string
	fixWait  time.Duration

	archive   storage.Archive
	sessionID int64

	logger *slog.Logger
	sess   session
}

// NewSweep creates a sweep-mode engine writing to logPath. Only the
// measurement, position and bearing commands are used; identify and
// frequency-set are not part of a sweep.
func NewSweep(cfg Config, commands catalog.Set, cell *cadence.Cell, logPath string, options ...func(*Sweep)) *Sweep {
	commands.Identify = ""
	commands.FrequencySet = ""

	s := Sweep{
		cfg:      cfg.withDefaults(),
		commands: commands,
		cadence:  cell,
		logPath:  logPath,
		fixWait:  DefaultFixWait,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	s.sess.logger = s.logger
	return &s
}

// Run performs the sweep: dial, wait for a fix, write the header exactly
// once, then record complete bearing/power pairs until stopped. Returns nil
// on a normal stop and an error when the connection is lost.
func (s *Sweep) Run(ctx context.Context) error {
	if err := truncateLog(s.logPath); err != nil {
		return err
	}

	if s.archive != nil {
		id, err := s.archive.CreateSession(ctx, "sweep", s.cfg.Instrument)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("archive session failed, continuing without it: %s", err))
			s.archive = nil
		} else {
			s.sessionID = id
		}
	}

	if err := s.sess.connect(s.cfg); err != nil {
		return err
	}
	defer s.sess.close()

	s.sess.initialize(s.commands)

	lat, lon, stopped := s.awaitFix(ctx)
	if stopped {
		return nil
	}
	if err := s.writeHeader(lat, lon); err != nil {
		return err
	}

	s.sess.transition(StateSampling)

	var recorded int
	defer func() {
		s.logger.Info("sweep finished", slog.Int("samples", recorded))
	}()

	for {
		if ctx.Err() != nil {
			s.logger.Info("stop requested")
			return nil
		}
		if _, err := os.Stat(s.logPath); err != nil {
			s.logger.Info("sweep log removed externally, stopping")
			return nil
		}

		if s.cycle(ctx) {
			recorded++
		}

		if s.sess.dead() {
			return fmt.Errorf("instrument connection lost: %w", s.sess.lastErr)
		}

		if !sleepCtx(ctx, s.cadence.Get()) {
			s.logger.Info("stop requested")
			return nil
		}
	}
}

// awaitFix polls the position query on a fast inner cadence until a fix is
// obtained or the wait budget elapses. stopped reports an external stop.
func (s *Sweep) awaitFix(ctx context.Context) (lat, lon *float64, stopped bool) {
	s.sess.transition(StateAwaitingFix)

	deadline := time.Now().Add(s.fixWait)
	for {
		if ctx.Err() != nil {
			return nil, nil, true
		}
		if _, err := os.Stat(s.logPath); err != nil {
			s.logger.Info("sweep log removed externally, stopping")
			return nil, nil, true
		}

		if resp, ok := s.sess.attempt(s.commands.Position); ok {
			if la, lo, ok := scpi.ParsePosition(resp); ok {
				s.logger.Info("position fix obtained",
					slog.Float64("latitude", la), slog.Float64("longitude", lo))
				return &la, &lo, false
			}
		}

		if time.Now().After(deadline) {
			s.logger.Warn("no position fix within wait budget, header left empty")
			return nil, nil, false
		}
		if !sleepCtx(ctx, fixPollInterval) {
			return nil, nil, true
		}
	}
}

// writeHeader writes the single latitude,longitude header line, empty when
// no fix was obtained. This happens exactly once, before any sample.
func (s *Sweep) writeHeader(lat, lon *float64) error {
	line := "\n"
	if lat != nil && lon != nil {
		line = fmt.Sprintf("%.6f,%.6f\n", *lat, *lon)
	}
	return appendLine(s.logPath, line)
}

// cycle queries level and bearing. Only a complete pair is recorded; a
// partial cycle writes nothing rather than inventing a value.
func (s *Sweep) cycle(ctx context.Context) bool {
	var power, bearing *float64

	if resp, ok := s.sess.attempt(s.commands.Measurement); ok {
		if dbuv, ok := scpi.FirstFloat(resp); ok {
			dbm := scpi.DBuVToDBm(dbuv)
			if finite(dbm) {
				power = &dbm
			}
		}
	}

	if resp, ok := s.sess.attempt(s.commands.Bearing); ok {
		if deg, ok := scpi.FirstFloat(resp); ok && finite(deg) {
			bearing = &deg
		}
	}

	if power == nil || bearing == nil {
		return false
	}

	line := fmt.Sprintf("%.1f,%.2f\n", *bearing, *power)
	if err := appendLine(s.logPath, line); err != nil {
		s.logger.Error(err.Error())
		return false
	}

	if s.archive != nil {
		rec := storage.SweepRecord{Timestamp: time.Now(), Bearing: *bearing, Power: *power}
		if err := s.archive.StoreSweepSample(ctx, s.sessionID, rec); err != nil {
			s.logger.Warn(fmt.Sprintf("archiving sweep sample failed: %s", err))
		}
	}
	return true
}
