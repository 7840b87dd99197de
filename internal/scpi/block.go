package scpi

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReadBlock reads an IEEE 488.2 definite-length block response:
// '#', one digit n, n digits of payload length, then the raw payload.
// No trailing terminator is consumed.
//
// When the first byte is not '#' the rest of the buffered line is consumed
// and reported, so an instrument error message does not poison the stream.
func (c *Conn) ReadBlock(timeout time.Duration) ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	first, err := c.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading block header: %w", classify(err))
	}
	if first != '#' {
		rest, _ := c.r.ReadString('\n')
		msg := strings.TrimRight(string(first)+rest, "\r\n")
		return nil, fmt.Errorf("%w: not a block response: %q", ErrProtocol, msg)
	}

	nd, err := c.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading block header: %w", classify(err))
	}
	ndigits := int(nd - '0')
	if ndigits < 1 || ndigits > 9 {
		return nil, fmt.Errorf("%w: invalid block digit count %q", ErrProtocol, nd)
	}

	digits := make([]byte, ndigits)
	if _, err = io.ReadFull(c.r, digits); err != nil {
		return nil, fmt.Errorf("%w: reading block length: %w", ErrProtocol, err)
	}
	length, err := strconv.Atoi(string(digits))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid block length %q", ErrProtocol, digits)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	data := make([]byte, length)
	if _, err = io.ReadFull(c.r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: connection closed mid-block: %w", ErrProtocol, err)
		}
		return nil, fmt.Errorf("reading block payload: %w", classify(err))
	}
	return data, nil
}
