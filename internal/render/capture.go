package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/roman-kulish/field-receiver/internal/scpi"
)

const jpegQuality = 92

// Capture pulls the instrument's display over a short-lived connection of
// its own, so a slow block transfer never interleaves with the sampling
// connection. The instrument answers with a PNG block which is re-encoded
// as JPEG.
type Capture struct {
	host    string
	port    int
	command string
	timeout time.Duration
}

func NewCapture(host string, port int, command string, timeout time.Duration) *Capture {
	return &Capture{host: host, port: port, command: command, timeout: timeout}
}

func (c *Capture) Render(_ Metadata, path string) error {
	conn, err := scpi.Dial(c.host, c.port, c.timeout)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer conn.Close()

	if err = conn.WriteLine("*CLS"); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err = conn.WriteLine(c.command); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	data, err := conn.ReadBlock(c.timeout)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("capture: decoding image: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer out.Close()

	if err = jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("capture: encoding image: %w", err)
	}
	return nil
}
