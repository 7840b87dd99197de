package scpi

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestReadBlock(t *testing.T) {
	c, server := pipeConn(t)

	go func() {
		_, _ = server.Write([]byte("#212HELLO WORLD!"))
	}()

	got, err := c.ReadBlock(testTimeout)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if !bytes.Equal(got, []byte("HELLO WORLD!")) {
		t.Errorf("ReadBlock = %q, want %q", got, "HELLO WORLD!")
	}
}

func TestReadBlock_ChunkedPayload(t *testing.T) {
	c, server := pipeConn(t)

	go func() {
		_, _ = server.Write([]byte("#210HELLO"))
		time.Sleep(20 * time.Millisecond)
		_, _ = server.Write([]byte("WORLD"))
	}()

	got, err := c.ReadBlock(testTimeout)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if !bytes.Equal(got, []byte("HELLOWORLD")) {
		t.Errorf("ReadBlock = %q, want %q", got, "HELLOWORLD")
	}
}

func TestReadBlock_NotABlock(t *testing.T) {
	c, server := pipeConn(t)

	go func() {
		_, _ = server.Write([]byte("ERROR -113,\"Undefined header\"\r\n"))
	}()

	_, err := c.ReadBlock(testTimeout)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}

	// The offending line must be fully consumed so the next exchange works.
	go func() {
		buf := make([]byte, 16)
		n, _ := server.Read(buf)
		if string(buf[:n]) == "*IDN?\n" {
			_, _ = server.Write([]byte("R&S PR100\r\n"))
		}
	}()

	got, err := c.Query("*IDN?", testTimeout)
	if err != nil {
		t.Fatalf("Query after protocol error failed: %v", err)
	}
	if got != "R&S PR100" {
		t.Errorf("Query = %q, want %q", got, "R&S PR100")
	}
}

func TestReadBlock_ClosedMidBody(t *testing.T) {
	c, server := pipeConn(t)

	go func() {
		_, _ = server.Write([]byte("#3100HELLO"))
		_ = server.Close()
	}()

	_, err := c.ReadBlock(testTimeout)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}
