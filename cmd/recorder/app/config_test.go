package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const configFixture = `
settings:
  logLevel: debug
instrument:
  host: 192.168.0.10
  name: PR100
  catalog: commands.yaml
  captureIndex: 6
  readTimeout: 1.5
cadence:
  period: 0.5
output:
  logPath: out/power.txt
archive:
  enabled: true
  dataDirectory: out/archive
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, configFixture))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Instrument.Host != "192.168.0.10" {
		t.Errorf("host = %q", config.Instrument.Host)
	}
	if config.Instrument.Port != defaultPort {
		t.Errorf("port = %d, want default %d", config.Instrument.Port, defaultPort)
	}
	if config.Instrument.CaptureIndex == nil || *config.Instrument.CaptureIndex != 6 {
		t.Errorf("captureIndex = %v, want 6", config.Instrument.CaptureIndex)
	}
	if config.Cadence.ListenAddr == "" {
		t.Error("listenAddr default not applied")
	}
	if got := config.LogLevel(); got != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", got)
	}

	engine := config.EngineConfig()
	if engine.ReadTimeout != 1500*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 1.5s", engine.ReadTimeout)
	}
	if engine.Instrument != "PR100" {
		t.Errorf("Instrument = %q, want PR100", engine.Instrument)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing host", "instrument:\n  name: PR100\n"},
		{"bad port", "instrument:\n  host: h\n  port: 99999\n"},
		{"bad period", "instrument:\n  host: h\ncadence:\n  period: -1\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestConfig_LogLevelDefaultsToInfo(t *testing.T) {
	var config Config
	if got := config.LogLevel(); got != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", got)
	}
}
