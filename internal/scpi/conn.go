package scpi

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when the instrument does not answer within the read timeout
	ErrTimeout = errors.New("read timeout")

	// ErrClosed is returned when the instrument connection is closed or reset
	ErrClosed = errors.New("connection closed")

	// ErrProtocol is returned when the instrument answers with something other
	// than the expected response framing
	ErrProtocol = errors.New("protocol error")
)

// Conn is a line-oriented command/response connection to an instrument.
// The instrument is single-duplex: one outstanding request at a time, so
// Conn must not be shared between concurrently running goroutines.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial opens an instrument connection.
func Dial(host string, port int, timeout time.Duration) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection. Used by Dial and by tests.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, r: bufio.NewReader(conn)}
}

// WriteLine sends one command line, appending exactly one line terminator.
func (c *Conn) WriteLine(cmd string) error {
	b := []byte(strings.TrimRight(cmd, "\n") + "\n")
	for len(b) > 0 {
		n, err := c.conn.Write(b)
		if err != nil {
			return fmt.Errorf("writing command: %w", classify(err))
		}
		b = b[n:]
	}
	return nil
}

// ReadLine reads one response line within the timeout. The trailing CR/LF is
// trimmed and undecodable bytes are replaced, never fatal.
func (c *Conn) ReadLine(timeout time.Duration) (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading response: %w", classify(err))
	}
	line = strings.TrimRight(line, "\r\n")
	return strings.ToValidUTF8(line, "�"), nil
}

// Query sends a command and reads a single response line.
func (c *Conn) Query(cmd string, timeout time.Duration) (string, error) {
	if err := c.WriteLine(cmd); err != nil {
		return "", err
	}
	return c.ReadLine(timeout)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// classify maps transport errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrClosed, err)
}
