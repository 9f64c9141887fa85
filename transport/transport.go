// Package transport owns the raw TCP side of the chat protocol: one
// connection, line-based reads and writes, nothing else. Retries and
// protocol state live with the callers.
package transport

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"

	"minechat/contract"
)

// TCP wraps a single chat connection with buffered line reads.
type TCP struct {
	conn      net.Conn
	reader    *bufio.Reader
	closeOnce sync.Once
	closeErr  error
}

// Dial opens a TCP connection to the chat.
func Dial(ctx context.Context, address string) (*TCP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return &TCP{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// ReadLine blocks until a full line arrives, then returns it without the
// trailing terminator. A clean remote close surfaces as io.EOF.
func (t *TCP) ReadLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine sends one line followed by the protocol terminator.
func (t *TCP) WriteLine(line string) error {
	_, err := t.conn.Write([]byte(line + "\n"))
	return err
}

// Close releases the socket. Safe to call more than once.
func (t *TCP) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// NetDialer is the production contract.Dialer.
type NetDialer struct{}

func (NetDialer) Dial(ctx context.Context, address string) (contract.LineTransport, error) {
	return Dial(ctx, address)
}
