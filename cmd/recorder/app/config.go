package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/field-receiver/internal/cadence"
	"github.com/roman-kulish/field-receiver/internal/instrument"
)

const (
	defaultPort        = 5555
	defaultPeriod      = 1.0
	defaultLogPath     = "power.txt"
	defaultCapturesDir = "captures"
	defaultFramesDir   = "frames"
)

// Config represents the recorder configuration.
type Config struct {
	Settings   Settings         `yaml:"settings"`
	Instrument InstrumentConfig `yaml:"instrument"`
	Cadence    CadenceConfig    `yaml:"cadence"`
	Output     OutputConfig     `yaml:"output"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// InstrumentConfig identifies the receiver and its command catalog.
type InstrumentConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	Name           string  `yaml:"name"`
	Catalog        string  `yaml:"catalog"`
	CaptureIndex   *int    `yaml:"captureIndex"`
	ReadTimeout    float64 `yaml:"readTimeout"`
	ConnectTimeout float64 `yaml:"connectTimeout"`
}

// CadenceConfig holds the initial sampling period in seconds and the UDP
// address accepting period updates.
type CadenceConfig struct {
	Period     float64 `yaml:"period"`
	ListenAddr string  `yaml:"listenAddr"`
}

// OutputConfig holds the sample log and artifact locations.
type OutputConfig struct {
	LogPath     string `yaml:"logPath"`
	CapturesDir string `yaml:"capturesDir"`
	FramesDir   string `yaml:"framesDir"`
}

// ArchiveConfig enables the optional sqlite sample archive. The text log
// is always written regardless.
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads, decodes and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := Config{
		Instrument: InstrumentConfig{Port: defaultPort},
		Cadence:    CadenceConfig{Period: defaultPeriod, ListenAddr: cadence.DefaultListenAddr},
		Output: OutputConfig{
			LogPath:     defaultLogPath,
			CapturesDir: defaultCapturesDir,
			FramesDir:   defaultFramesDir,
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the decoded configuration for usable values.
func (c *Config) Validate() error {
	if c.Instrument.Host == "" {
		return fmt.Errorf("instrument.host is required")
	}
	if c.Instrument.Port < 1 || c.Instrument.Port > 65535 {
		return fmt.Errorf("instrument.port %d is out of range", c.Instrument.Port)
	}
	if c.Instrument.ReadTimeout < 0 || c.Instrument.ConnectTimeout < 0 {
		return fmt.Errorf("instrument timeouts must not be negative")
	}
	if c.Cadence.Period <= 0 {
		return fmt.Errorf("cadence.period must be positive, got %v", c.Cadence.Period)
	}
	if c.Output.LogPath == "" {
		return fmt.Errorf("output.logPath is required")
	}
	return nil
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// EngineConfig maps the instrument section onto the engine configuration.
func (c *Config) EngineConfig() instrument.Config {
	return instrument.Config{
		Host:           c.Instrument.Host,
		Port:           c.Instrument.Port,
		Instrument:     c.Instrument.Name,
		ReadTimeout:    secondsToDuration(c.Instrument.ReadTimeout),
		ConnectTimeout: secondsToDuration(c.Instrument.ConnectTimeout),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
