package transport

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startServer runs a scripted TCP server for one connection and returns its
// address. The handler runs in the background; the listener closes with the test.
func startServer(t *testing.T, handler func(conn net.Conn)) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()
	return listener.Addr().String()
}

func TestTCP_ReadLineStripsTerminator(t *testing.T) {
	req := require.New(t)
	address := startServer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("hello chat\n"))
		_, _ = conn.Write([]byte("windows line\r\n"))
	})

	transport, err := Dial(context.Background(), address)
	req.NoError(err)
	defer transport.Close()

	line, err := transport.ReadLine()
	req.NoError(err)
	req.Equal("hello chat", line)

	line, err = transport.ReadLine()
	req.NoError(err)
	req.Equal("windows line", line)
}

func TestTCP_ReadLineEOFOnRemoteClose(t *testing.T) {
	req := require.New(t)
	address := startServer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("last words\n"))
	})

	transport, err := Dial(context.Background(), address)
	req.NoError(err)
	defer transport.Close()

	_, err = transport.ReadLine()
	req.NoError(err)

	_, err = transport.ReadLine()
	req.ErrorIs(err, io.EOF)
}

func TestTCP_WriteLineAppendsTerminator(t *testing.T) {
	req := require.New(t)
	received := make(chan string, 1)
	address := startServer(t, func(conn net.Conn) {
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err == nil {
			received <- line
		}
	})

	transport, err := Dial(context.Background(), address)
	req.NoError(err)
	defer transport.Close()

	req.NoError(transport.WriteLine("a token"))

	select {
	case line := <-received:
		req.Equal("a token\n", line)
	case <-time.After(1 * time.Second):
		req.Fail("server did not receive the line")
	}
}

func TestTCP_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	address := startServer(t, func(conn net.Conn) {})

	transport, err := Dial(context.Background(), address)
	req.NoError(err)

	req.NoError(transport.Close())
	// Second close must not fail: the first result is cached.
	req.NoError(transport.Close())
}

func TestDial_ConnectionRefused(t *testing.T) {
	req := require.New(t)

	// Given a port with nothing listening
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	address := listener.Addr().String()
	req.NoError(listener.Close())

	_, err = Dial(context.Background(), address)
	req.Error(err)
}
