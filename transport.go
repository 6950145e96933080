// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Transport carries one request/response exchange. Send transmits the
// payload and blocks for the reply; implementations own their timeout
// and retransmission strategy. A scripted implementation stands in for
// the network in tests.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
	Close() error
}

// UDPTransport sends SNMP datagrams over a connected UDP socket with
// retransmission. The read deadline grows with every attempt, so a
// slow agent gets progressively more time before the packet is resent.
type UDPTransport struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	retries int
	buf     []byte
}

// DialUDP connects to the agent. address is "host:port"; a bare host
// gets the default SNMP port 161. Timeout and retries outside their
// valid range fall back to the defaults (300 ms, 3 attempts).
func DialUDP(address string, timeout time.Duration, retries int) (*UDPTransport, error) {
	if timeout <= 0 || timeout > MaxTimeoutMs*time.Millisecond {
		timeout = DefaultTimeoutMs * time.Millisecond
	}
	if retries <= 0 || retries > MaxRetries {
		retries = DefaultRetries
	}
	if !strings.Contains(address, ":") {
		address = net.JoinHostPort(address, "161")
	}
	// generous dial timeout to cover slow name resolution
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.Dial("udp", address)
	if err != nil {
		return nil, err
	}
	return &UDPTransport{
		conn:    conn,
		timeout: timeout,
		retries: retries,
		buf:     make([]byte, recvBufferSize),
	}, nil
}

// Send writes the payload and waits for one datagram back. On a read
// timeout the payload is retransmitted; other read errors consume an
// attempt without resending.
func (t *UDPTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lastErr error
	sendRequest := true
	for attempt := 0; attempt < t.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		readDeadline := time.Now().Add(t.timeout * time.Duration(attempt+1))
		if d, ok := ctx.Deadline(); ok && d.Before(readDeadline) {
			readDeadline = d
		}
		if err := t.conn.SetReadDeadline(readDeadline); err != nil {
			lastErr = err
			continue
		}

		if sendRequest {
			if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
				lastErr = err
				continue
			}
			n, err := t.conn.Write(payload)
			if err != nil || n != len(payload) {
				lastErr = err
				continue
			}
			sendRequest = false
		}

		n, err := t.conn.Read(t.buf)
		if err != nil {
			lastErr = err
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				sendRequest = true
			}
			continue
		}
		out := make([]byte, n)
		copy(out, t.buf[:n])
		return out, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no response after %d attempts", t.retries)
	}
	logErrorf("giving up on %s after %d attempts: %v", t.conn.RemoteAddr(), t.retries, lastErr)
	return nil, SnmpError{Message: "request failed", Cause: lastErr}
}

// Close releases the socket.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
