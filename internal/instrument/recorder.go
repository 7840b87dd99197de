package instrument

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/field-receiver/internal/cadence"
	"github.com/roman-kulish/field-receiver/internal/catalog"
	"github.com/roman-kulish/field-receiver/internal/render"
	"github.com/roman-kulish/field-receiver/internal/scpi"
	"github.com/roman-kulish/field-receiver/internal/storage"
)

// WithLogger sets the logger for the recorder.
func WithLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger.With(slog.String("mode", "continuous"))
	}
}

// WithArchive mirrors samples into the archive in addition to the text log.
func WithArchive(archive storage.Archive) func(*Recorder) {
	return func(r *Recorder) {
		r.archive = archive
	}
}

// WithArtifactDirs sets the capture and frame output directories.
func WithArtifactDirs(captures, frames string) func(*Recorder) {
	return func(r *Recorder) {
		r.capturesDir = captures
		r.framesDir = frames
	}
}

// WithCaptureRenderer replaces the display capture renderer.
func WithCaptureRenderer(renderer render.Renderer) func(*Recorder) {
	return func(r *Recorder) {
		r.capture = renderer
	}
}

// WithCardRenderer replaces the synthetic card renderer.
func WithCardRenderer(renderer render.Renderer) func(*Recorder) {
	return func(r *Recorder) {
		r.card = renderer
	}
}

// Recorder is the continuous acquisition engine. Each cycle it queries
// level, position and bearing, appends exactly one sample line no matter
// how many readings were unavailable, produces the per-sample artifacts and
// sleeps for the current cadence.
type Recorder struct {
	cfg      Config
	commands catalog.Set
	cadence  *cadence.Cell
	logPath  string

	capturesDir string
	framesDir   string
	capture     render.Renderer
	card        render.Renderer

	archive   storage.Archive
	sessionID int64

	logger *slog.Logger
	sess   session
}

// NewRecorder creates a continuous-mode engine writing to logPath.
func NewRecorder(cfg Config, commands catalog.Set, cell *cadence.Cell, logPath string, options ...func(*Recorder)) (*Recorder, error) {
	cfg = cfg.withDefaults()

	card, err := render.NewCard()
	if err != nil {
		return nil, fmt.Errorf("creating card renderer: %w", err)
	}

	r := Recorder{
		cfg:      cfg,
		commands: commands,
		cadence:  cell,
		logPath:  logPath,
		capture:  render.NewCapture(cfg.Host, cfg.Port, commands.Capture, cfg.ReadTimeout),
		card:     card,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	r.sess.logger = r.logger
	return &r, nil
}

// Run owns the connection for the whole acquisition: dial, init, cycle
// until stopped. It returns nil on a normal stop (cancellation or the log
// file removed externally) and an error when the connection is lost.
func (r *Recorder) Run(ctx context.Context) error {
	if err := truncateLog(r.logPath); err != nil {
		return err
	}
	r.clearArtifacts()

	if r.archive != nil {
		id, err := r.archive.CreateSession(ctx, "continuous", r.cfg.Instrument)
		if err != nil {
			r.logger.Warn(fmt.Sprintf("archive session failed, continuing without it: %s", err))
			r.archive = nil
		} else {
			r.sessionID = id
		}
	}

	if err := r.sess.connect(r.cfg); err != nil {
		return err
	}
	defer r.sess.close()

	r.sess.initialize(r.commands)
	r.sess.transition(StateSampling)

	var cycles int
	defer func() {
		r.logger.Info("acquisition finished", slog.Int("samples", cycles))
	}()

	for idx := 0; ; idx++ {
		if ctx.Err() != nil {
			r.logger.Info("stop requested")
			return nil
		}
		if _, err := os.Stat(r.logPath); err != nil {
			r.logger.Info("sample log removed externally, stopping")
			return nil
		}

		r.cycle(ctx, idx)
		cycles++

		if r.sess.dead() {
			return fmt.Errorf("instrument connection lost: %w", r.sess.lastErr)
		}

		if !sleepCtx(ctx, r.cadence.Get()) {
			r.logger.Info("stop requested")
			return nil
		}
	}
}

// cycle performs one acquisition: three best-effort queries, one log line,
// two artifacts. Nothing in here aborts the cycle; missing readings are
// recorded as missing.
func (r *Recorder) cycle(ctx context.Context, idx int) {
	sample := Sample{Taken: time.Now()}

	if resp, ok := r.sess.attempt(r.commands.Measurement); ok {
		if dbuv, ok := scpi.FirstFloat(resp); ok {
			dbm := scpi.DBuVToDBm(dbuv)
			sample.Power = &dbm
		}
	}

	if resp, ok := r.sess.attempt(r.commands.Position); ok {
		if lat, lon, ok := scpi.ParsePosition(resp); ok {
			sample.Latitude, sample.Longitude = &lat, &lon
		}
	}

	if resp, ok := r.sess.attempt(r.commands.Bearing); ok {
		if deg, ok := scpi.FirstFloat(resp); ok && finite(deg) {
			sample.Bearing = &deg
		}
	}

	if err := appendLine(r.logPath, sample.Line()); err != nil {
		r.logger.Error(err.Error())
	}

	if r.archive != nil {
		if err := r.archive.StoreSample(ctx, r.sessionID, toRecord(sample)); err != nil {
			r.logger.Warn(fmt.Sprintf("archiving sample failed: %s", err))
		}
	}

	r.renderArtifacts(sample, idx)
}

// renderArtifacts writes the per-sample capture (real display when
// possible, synthetic card otherwise) and the unconditional frame. Both are
// best-effort; a capture failure always still yields an artifact.
func (r *Recorder) renderArtifacts(sample Sample, idx int) {
	meta := render.Metadata{
		Title:     r.cfg.Instrument + " Measurement",
		Taken:     sample.Taken,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Bearing:   sample.Bearing,
		Power:     sample.Power,
		Frequency: r.sess.frequencyHz,
	}

	if r.capturesDir != "" {
		path := filepath.Join(r.capturesDir, fmt.Sprintf("captura_%d.jpg", idx))
		if err := r.capture.Render(meta, path); err != nil {
			r.logger.Warn(fmt.Sprintf("display capture failed, rendering card: %s", err))
			if err = r.card.Render(meta, path); err != nil {
				r.logger.Warn(fmt.Sprintf("card render failed: %s", err))
			}
		}
	}

	if r.framesDir != "" {
		meta.Title = r.cfg.Instrument + " Frame"
		path := filepath.Join(r.framesDir, fmt.Sprintf("frame_%d.jpg", idx))
		if err := r.card.Render(meta, path); err != nil {
			r.logger.Warn(fmt.Sprintf("frame render failed: %s", err))
		}
	}
}

// clearArtifacts removes artifacts left over from a previous run so indices
// restart at zero.
func (r *Recorder) clearArtifacts() {
	for dir, pattern := range map[string]string{
		r.capturesDir: "captura_*",
		r.framesDir:   "frame_*",
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.logger.Warn(fmt.Sprintf("creating %s: %s", dir, err))
			continue
		}

		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		for _, m := range matches {
			_ = os.Remove(m)
		}
	}
}

func toRecord(s Sample) storage.SampleRecord {
	return storage.SampleRecord{
		Timestamp: s.Taken,
		Power:     toNullFloat(s.Power),
		Bearing:   toNullFloat(s.Bearing),
		Latitude:  toNullFloat(s.Latitude),
		Longitude: toNullFloat(s.Longitude),
	}
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
