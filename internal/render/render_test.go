package render

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestCard_Render(t *testing.T) {
	card, err := NewCard()
	if err != nil {
		t.Fatalf("NewCard failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame_0.jpg")
	meta := Metadata{
		Title:     "PR100 Measurement",
		Taken:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Latitude:  f64(48.1279),
		Longitude: f64(11.6132),
		Bearing:   f64(137.5),
		Power:     f64(-61.75),
		Frequency: f64(433.92e6),
	}

	if err = card.Render(meta, path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	img, err := jpeg.Decode(out)
	if err != nil {
		t.Fatalf("artifact is not a valid JPEG: %v", err)
	}
	if img.Bounds().Dx() != cardSize || img.Bounds().Dy() != cardSize {
		t.Errorf("unexpected image size %v", img.Bounds())
	}
}

func TestCard_RenderWithAbsentFields(t *testing.T) {
	card, err := NewCard()
	if err != nil {
		t.Fatalf("NewCard failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame_1.jpg")
	meta := Metadata{Title: "PR100 Frame", Taken: time.Now()}

	if err = card.Render(meta, path); err != nil {
		t.Fatalf("Render with absent fields failed: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("artifact missing or empty: %v", err)
	}
}

// captureServer answers any capture command with a block-framed PNG.
func captureServer(t *testing.T, payload []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if strings.Contains(line, "FETch") {
				header := fmt.Sprintf("#%d%d", len(fmt.Sprint(len(payload))), len(payload))
				_, _ = conn.Write(append([]byte(header), payload...))
				return
			}
		}
	}()

	return ln.Addr().String()
}

func TestCapture_Render(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	addr := captureServer(t, buf.Bytes())
	host, port := splitAddr(t, addr)

	capture := NewCapture(host, port, "DISPlay:WINDow:FETch?", time.Second)
	path := filepath.Join(t.TempDir(), "captura_0.jpg")

	if err := capture.Render(Metadata{}, path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	if _, err = jpeg.Decode(out); err != nil {
		t.Errorf("artifact is not a valid JPEG: %v", err)
	}
}

func TestCapture_RenderBadPayload(t *testing.T) {
	addr := captureServer(t, []byte("this is not a png"))
	host, port := splitAddr(t, addr)

	capture := NewCapture(host, port, "DISPlay:WINDow:FETch?", time.Second)
	path := filepath.Join(t.TempDir(), "captura_0.jpg")

	if err := capture.Render(Metadata{}, path); err == nil {
		t.Fatal("expected an error for a non-PNG block")
	}
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()

	tcp, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	return tcp.IP.String(), tcp.Port
}
