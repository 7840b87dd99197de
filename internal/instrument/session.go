// Package instrument drives a SCPI-style receiver over TCP and records its
// readings. Two acquisition variants share the connection machinery: the
// continuous geo-tagged Recorder and the stationary azimuth Sweep.
package instrument

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/field-receiver/internal/catalog"
	"github.com/roman-kulish/field-receiver/internal/scpi"
)

const (
	// DefaultReadTimeout bounds every response read.
	DefaultReadTimeout = 3 * time.Second

	// DefaultConnectTimeout bounds the initial dial.
	DefaultConnectTimeout = 5 * time.Second

	// transportErrorLimit is the number of consecutive transport-level
	// failures after which the connection is considered dead.
	transportErrorLimit = 3
)

// State is the engine lifecycle phase, used for logging and the run summary.
type State int

const (
	StateConnecting State = iota
	StateReady
	StateAwaitingFix
	StateSampling
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateAwaitingFix:
		return "awaiting-fix"
	case StateSampling:
		return "sampling"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config identifies the instrument endpoint shared by both variants.
type Config struct {
	Host           string
	Port           int
	Instrument     string // catalog display name
	ReadTimeout    time.Duration
	ConnectTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = DefaultReadTimeout
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	return out
}

// session owns the long-lived sampling connection. It is used strictly
// sequentially: the instrument link is single-duplex, one outstanding
// request at a time.
type session struct {
	conn        *scpi.Conn
	readTimeout time.Duration
	state       State

	frequencyHz *float64

	transportErrs int
	lastErr       error

	logger *slog.Logger
}

func (s *session) transition(state State) {
	s.logger.Debug("state transition",
		slog.String("from", s.state.String()), slog.String("to", state.String()))
	s.state = state
}

// connect dials the instrument. A failed dial is fatal to the run; retry
// policy belongs to whatever supervises the process.
func (s *session) connect(cfg Config) error {
	s.transition(StateConnecting)

	conn, err := scpi.Dial(cfg.Host, cfg.Port, cfg.ConnectTimeout)
	if err != nil {
		return err
	}

	s.conn = conn
	s.readTimeout = cfg.ReadTimeout
	s.transition(StateReady)

	s.logger.Info("connected to instrument",
		slog.String("host", cfg.Host), slog.Int("port", cfg.Port))
	return nil
}

// initialize clears the instrument's status framing and forces ASCII data
// formatting. Everything here is best-effort: a failure is logged and the
// run proceeds.
func (s *session) initialize(set catalog.Set) {
	for _, cmd := range []string{"*CLS", "FORMat:DATA ASCii"} {
		if err := s.conn.WriteLine(cmd); err != nil {
			s.logger.Warn(fmt.Sprintf("init command %q failed: %s", cmd, err))
		}
	}

	if set.FrequencySet != "" {
		if err := s.conn.WriteLine(set.FrequencySet); err != nil {
			s.logger.Warn(fmt.Sprintf("frequency set failed: %s", err))
		} else {
			s.logger.Info("frequency configured", slog.String("command", set.FrequencySet))
		}
	}

	if set.Identify != "" {
		if idn, ok := s.attempt(set.Identify); ok {
			s.logger.Info("instrument identified", slog.String("idn", idn))
		}
	}

	if resp, ok := s.attempt("FREQ?"); ok {
		if hz, ok := scpi.FirstFloat(resp); ok && hz > 0 {
			s.frequencyHz = &hz
			s.logger.Info("center frequency read", slog.Float64("hz", hz))
		}
	}
}

// attempt issues one query and degrades any failure to an absent reading.
// Timeouts and malformed responses stay local to the current cycle; only a
// run of consecutive transport failures marks the connection dead.
func (s *session) attempt(cmd string) (string, bool) {
	if cmd == "" {
		return "", false
	}

	resp, err := s.conn.Query(cmd, s.readTimeout)
	if err != nil {
		if errors.Is(err, scpi.ErrClosed) {
			s.transportErrs++
			s.lastErr = err
		}
		s.logger.Warn(fmt.Sprintf("query failed: %s", err), slog.String("command", cmd))
		return "", false
	}

	s.transportErrs = 0
	return resp, true
}

// dead reports whether the connection should be considered lost.
func (s *session) dead() bool {
	return s.transportErrs >= transportErrorLimit
}

func (s *session) close() {
	s.transition(StateDraining)
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.transition(StateClosed)
}

// sleepCtx waits for d or until ctx is cancelled. Returns false when the
// wait was interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
