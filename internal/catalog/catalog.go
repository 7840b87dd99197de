// Package catalog loads per-instrument command sets from a YAML file.
// Command meaning is positional within an instrument's list; missing or
// blank entries fall back to the receiver defaults, so an unreadable or
// incomplete catalog degrades the command set but never fails a run.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Positional command indices within an instrument's command list.
const (
	IndexIdentify     = 0
	IndexMeasurement  = 2
	IndexPosition     = 3
	IndexBearing      = 4
	IndexFrequencySet = 5
)

// Defaults for command purposes that have one.
const (
	DefaultMeasurement = `SENSe:DATA? "VOLT:AC"`
	DefaultPosition    = "SYST:GPS:DATA?"
	DefaultBearing     = "SYST:COMPass:DATA?"
	DefaultCapture     = "DISPlay:WINDow:FETch?"
)

// Catalog holds the command lists of all known instruments.
type Catalog struct {
	instruments map[string][]string
}

type catalogFile struct {
	Instruments []struct {
		Name     string   `yaml:"name"`
		Commands []string `yaml:"commands"`
	} `yaml:"instruments"`
}

// Load reads a catalog file. A missing or malformed file is a configuration
// problem, not a fatal one: the caller keeps an empty catalog and every
// lookup falls back to defaults.
func Load(path string) (*Catalog, error) {
	c := Catalog{instruments: make(map[string][]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		return &c, fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return &c, fmt.Errorf("parsing catalog: %w", err)
	}

	for _, instr := range file.Instruments {
		c.instruments[instr.Name] = instr.Commands
	}
	return &c, nil
}

// Commands returns the ordered command list for an instrument display name,
// or nil when the instrument is unknown.
func (c *Catalog) Commands(name string) []string {
	return c.instruments[name]
}

// Set is the resolved command set the acquisition engine works with.
type Set struct {
	Identify     string // optional, no default
	Measurement  string
	Position     string
	Bearing      string
	FrequencySet string // optional, no default
	Capture      string
}

// CommandSet resolves the command set for an instrument. captureIndex, when
// non-nil, selects the capture command by position ahead of the text match.
func (c *Catalog) CommandSet(name string, captureIndex *int) Set {
	cmds := c.Commands(name)
	return Set{
		Identify:     Command(cmds, IndexIdentify, ""),
		Measurement:  Command(cmds, IndexMeasurement, DefaultMeasurement),
		Position:     Command(cmds, IndexPosition, DefaultPosition),
		Bearing:      Command(cmds, IndexBearing, DefaultBearing),
		FrequencySet: Command(cmds, IndexFrequencySet, ""),
		Capture:      CaptureCommand(cmds, captureIndex),
	}
}

// Command returns the trimmed command at index, or fallback when the index
// is out of range or the entry is blank.
func Command(cmds []string, index int, fallback string) string {
	if index < 0 || index >= len(cmds) {
		return fallback
	}
	if cmd := strings.TrimSpace(cmds[index]); cmd != "" {
		return cmd
	}
	return fallback
}

// CaptureCommand picks the display capture command with three-tier priority:
// an explicit index wins, then the first command matching the capture query
// text, then the default. The text match uppercases and strips all
// whitespace so formatting variants of the same command still match.
func CaptureCommand(cmds []string, explicitIndex *int) string {
	if explicitIndex != nil {
		if cmd := Command(cmds, *explicitIndex, ""); cmd != "" {
			return cmd
		}
	}

	for _, cmd := range cmds {
		if strings.Contains(normalize(cmd), normalize(DefaultCapture)) {
			return strings.TrimSpace(cmd)
		}
	}
	return DefaultCapture
}

func normalize(cmd string) string {
	return strings.Join(strings.Fields(strings.ToUpper(cmd)), "")
}
