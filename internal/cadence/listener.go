package cadence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultListenAddr is the well-known local control endpoint.
const DefaultListenAddr = "127.0.0.1:9999"

// Listen binds a local UDP endpoint and updates the cell from incoming
// datagrams carrying a bare decimal number of seconds. No response is sent.
// A port that cannot be bound is logged and tolerated: the run continues
// with the interval it already has. Listen returns once the socket is up
// (or given up on); the listener itself stops when ctx is cancelled.
func Listen(ctx context.Context, addr string, cell *Cell, logger *slog.Logger) {
	if addr == "" {
		addr = DefaultListenAddr
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		logger.Warn("cadence control endpoint unavailable, continuing without it",
			slog.String("addr", addr), slog.String("error", err.Error()))
		return
	}

	logger.Info("cadence control endpoint ready", slog.String("addr", addr))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go serve(conn, cell, logger)
}

func serve(conn net.PacketConn, cell *Cell, logger *slog.Logger) {
	buf := make([]byte, 64)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Warn(fmt.Sprintf("cadence listener stopped: %s", err))
			}
			return
		}

		payload := strings.TrimSpace(string(buf[:n]))
		secs, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			logger.Warn("ignoring invalid cadence datagram", slog.String("payload", payload))
			continue
		}

		d := time.Duration(secs * float64(time.Second))
		if !cell.Set(d) {
			logger.Warn("ignoring non-positive cadence", slog.String("payload", payload))
			continue
		}

		logger.Info("cadence updated", slog.Duration("interval", d))
	}
}
