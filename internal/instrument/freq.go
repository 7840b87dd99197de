package instrument

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/roman-kulish/field-receiver/internal/scpi"
)

// ErrValidation is returned for malformed caller input, before any I/O.
var ErrValidation = errors.New("validation error")

var freqPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// SetFrequency changes the receiver's center frequency over a short-lived
// connection of its own, so it never interleaves with an in-progress
// sampling cycle. The value is a decimal numeral in MHz; a comma decimal
// separator is accepted. Returns the instrument's echoed frequency line,
// or the literal "OK" when no echo arrives within the read timeout.
func SetFrequency(host string, port int, freqMHz string, timeout time.Duration) (string, error) {
	freq := strings.ReplaceAll(strings.TrimSpace(freqMHz), ",", ".")
	if !freqPattern.MatchString(freq) {
		return "", fmt.Errorf("%w: %q is not a decimal numeral in MHz", ErrValidation, freqMHz)
	}

	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	conn, err := scpi.Dial(host, port, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err = conn.WriteLine("*CLS"); err != nil {
		return "", err
	}
	if err = conn.WriteLine(fmt.Sprintf("FREQ %sMHz", freq)); err != nil {
		return "", err
	}

	echo, err := conn.Query("FREQ?", timeout)
	if err != nil {
		if errors.Is(err, scpi.ErrTimeout) {
			return "OK", nil
		}
		return "", err
	}
	if echo == "" {
		return "OK", nil
	}
	return echo, nil
}
