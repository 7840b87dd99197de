package instrument

import (
	"errors"
	"testing"
)

func TestSetFrequency_RejectsMalformedInput(t *testing.T) {
	tests := []string{"", "abc", "4.3.9", "-433.92", "433 92", "433.92MHz"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := SetFrequency("127.0.0.1", 1, input, testReadTimeout)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("SetFrequency(%q) error = %v, want ErrValidation", input, err)
			}
		})
	}
}

func TestSetFrequency_ReturnsInstrumentEcho(t *testing.T) {
	f := newFakeInstrument(t, map[string]string{"FREQ?": "433920000"})
	cfg := f.config(t)

	got, err := SetFrequency(cfg.Host, cfg.Port, "433.92", testReadTimeout)
	if err != nil {
		t.Fatalf("SetFrequency failed: %v", err)
	}
	if got != "433920000" {
		t.Errorf("echo = %q, want 433920000", got)
	}
}

func TestSetFrequency_AcceptsCommaDecimalSeparator(t *testing.T) {
	f := newFakeInstrument(t, map[string]string{"FREQ?": "433920000"})
	cfg := f.config(t)

	if _, err := SetFrequency(cfg.Host, cfg.Port, "433,92", testReadTimeout); err != nil {
		t.Errorf("comma separator should normalize to a period: %v", err)
	}
}

func TestSetFrequency_SilentInstrumentReportsOK(t *testing.T) {
	f := newFakeInstrument(t, nil)
	cfg := f.config(t)

	got, err := SetFrequency(cfg.Host, cfg.Port, "98.5", testReadTimeout)
	if err != nil {
		t.Fatalf("SetFrequency failed: %v", err)
	}
	if got != "OK" {
		t.Errorf("result = %q, want OK when the instrument does not echo", got)
	}
}

func TestSetFrequency_UnreachableInstrument(t *testing.T) {
	if _, err := SetFrequency("127.0.0.1", 1, "98.5", testReadTimeout); err == nil {
		t.Error("expected a connection error for an unreachable instrument")
	}
}
