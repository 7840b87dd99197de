package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const testCatalog = `
instruments:
  - name: PR100
    commands:
      - "*IDN?"
      - "*RST"
      - 'SENSe:DATA? "VOLT:AC"'
      - "SYST:GPS:DATA?"
      - "SYST:COMPass:DATA?"
      - "FREQ 433.92MHz"
      - "DISPlay:WINDow:FETch?"
  - name: Sparse
    commands:
      - "*IDN?"
      - ""
      - ""
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "menu.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	set := c.CommandSet("PR100", nil)
	if set.Identify != "*IDN?" {
		t.Errorf("Identify = %q", set.Identify)
	}
	if set.Measurement != `SENSe:DATA? "VOLT:AC"` {
		t.Errorf("Measurement = %q", set.Measurement)
	}
	if set.FrequencySet != "FREQ 433.92MHz" {
		t.Errorf("FrequencySet = %q", set.FrequencySet)
	}
	if set.Capture != "DISPlay:WINDow:FETch?" {
		t.Errorf("Capture = %q", set.Capture)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing catalog")
	}

	// The catalog must still be usable.
	set := c.CommandSet("PR100", nil)
	if set.Measurement != DefaultMeasurement {
		t.Errorf("Measurement = %q, want default", set.Measurement)
	}
	if set.Position != DefaultPosition {
		t.Errorf("Position = %q, want default", set.Position)
	}
	if set.Bearing != DefaultBearing {
		t.Errorf("Bearing = %q, want default", set.Bearing)
	}
	if set.Capture != DefaultCapture {
		t.Errorf("Capture = %q, want default", set.Capture)
	}
	if set.Identify != "" || set.FrequencySet != "" {
		t.Errorf("optional commands should be empty, got %q / %q", set.Identify, set.FrequencySet)
	}
}

func TestCommand_BlankEntryFallsBack(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	set := c.CommandSet("Sparse", nil)
	if set.Measurement != DefaultMeasurement {
		t.Errorf("Measurement = %q, want default", set.Measurement)
	}
}

func TestCaptureCommand_Priority(t *testing.T) {
	two := 2
	nine := 9

	tests := []struct {
		name  string
		cmds  []string
		index *int
		want  string
	}{
		{
			"explicit index wins over text match",
			[]string{"*IDN?", "DISPlay:WINDow:FETch?", "HCOPy:DATA?"},
			&two,
			"HCOPy:DATA?",
		},
		{
			"out of range index falls through to text match",
			[]string{"*IDN?", "display:window:fetch?"},
			&nine,
			"display:window:fetch?",
		},
		{
			"text match tolerates whitespace and tabs",
			[]string{"*IDN?", "DISPlay : WINDow :\tFETch ?"},
			nil,
			"DISPlay : WINDow :\tFETch ?",
		},
		{
			"default when nothing matches",
			[]string{"*IDN?", "*RST"},
			nil,
			DefaultCapture,
		},
		{
			"empty list yields default",
			nil,
			nil,
			DefaultCapture,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CaptureCommand(tc.cmds, tc.index); got != tc.want {
				t.Errorf("CaptureCommand = %q, want %q", got, tc.want)
			}
		})
	}
}
