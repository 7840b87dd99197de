package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/field-receiver/internal/cadence"
	"github.com/roman-kulish/field-receiver/internal/catalog"
	"github.com/roman-kulish/field-receiver/internal/instrument"
	"github.com/roman-kulish/field-receiver/internal/storage"
)

// Run wires the catalog, cadence listener and optional archive into a
// sweep engine and drives it until ctx is cancelled or the engine stops
// on its own.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	cat, err := catalog.Load(config.Instrument.Catalog)
	if err != nil {
		logger.Warn(fmt.Sprintf("command catalog unavailable, using defaults: %s", err))
	}
	commands := cat.CommandSet(config.Instrument.Name, nil)

	period := secondsToDuration(config.Cadence.Period)
	cell := cadence.NewCell(period, time.Second)
	cadence.Listen(ctx, config.Cadence.ListenAddr, cell, logger)

	options := []func(*instrument.Sweep){
		instrument.WithSweepLogger(logger),
	}
	if config.Instrument.FixWait > 0 {
		options = append(options, instrument.WithFixWait(secondsToDuration(config.Instrument.FixWait)))
	}

	if config.Archive.Enabled {
		archive, err := createArchive(&config.Archive)
		if err != nil {
			return fmt.Errorf("creating archive: %w", err)
		}
		defer archive.Close()
		options = append(options, instrument.WithSweepArchive(archive))
	}

	sweep := instrument.NewSweep(config.EngineConfig(), commands, cell, config.Output.LogPath, options...)
	return sweep.Run(ctx)
}

func createArchive(config *ArchiveConfig) (storage.Archive, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("sweep_%s.sqlite", time.Now().UTC().Format("20060102_150405"))
	return storage.NewSqliteArchive(filepath.Join(dir, name)), nil
}
