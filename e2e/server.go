package e2e

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// chatServer is an in-process stand-in for the real chat service. It speaks
// the same two-port protocol: a broadcast-only read port and a token
// authenticated write port that acknowledges every message line.
type chatServer struct {
	log        *slog.Logger
	validToken string
	nickname   string

	readListener  net.Listener
	writeListener net.Listener

	mu       sync.Mutex
	readers  []net.Conn
	received []string

	// delivered carries every accepted message for the test to wait on.
	delivered chan string

	wg sync.WaitGroup
}

func startChatServer(log *slog.Logger, validToken, nickname string) (*chatServer, error) {
	readListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	writeListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = readListener.Close()
		return nil, err
	}

	s := &chatServer{
		log:           log,
		validToken:    validToken,
		nickname:      nickname,
		readListener:  readListener,
		writeListener: writeListener,
		delivered:     make(chan string, 128),
	}

	s.wg.Add(2)
	go s.acceptReaders()
	go s.acceptWriters()
	return s, nil
}

func (s *chatServer) ReadAddress() string  { return s.readListener.Addr().String() }
func (s *chatServer) WriteAddress() string { return s.writeListener.Addr().String() }

// Broadcast pushes one chat line to every connected read client.
func (s *chatServer) Broadcast(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.readers {
		_, _ = conn.Write([]byte(line + "\n"))
	}
}

// ReaderCount reports how many read connections are currently open.
func (s *chatServer) ReaderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readers)
}

// DropReaders closes every read connection, simulating a server-side drop.
func (s *chatServer) DropReaders() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.readers {
		_ = conn.Close()
	}
	s.readers = nil
}

// Delivered exposes every message accepted on the write port, in order.
func (s *chatServer) Delivered() <-chan string {
	return s.delivered
}

// Received returns a copy of every message accepted so far.
func (s *chatServer) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.received...)
}

func (s *chatServer) Stop() {
	_ = s.readListener.Close()
	_ = s.writeListener.Close()
	s.DropReaders()
	s.wg.Wait()
}

func (s *chatServer) acceptReaders() {
	defer s.wg.Done()
	for {
		conn, err := s.readListener.Accept()
		if err != nil {
			return
		}
		s.log.Debug("Read client connected", "remote", conn.RemoteAddr())
		s.mu.Lock()
		s.readers = append(s.readers, conn)
		s.mu.Unlock()
	}
}

func (s *chatServer) acceptWriters() {
	defer s.wg.Done()
	for {
		conn, err := s.writeListener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.serveWriter(conn)
	}
}

// serveWriter runs the write-port protocol on one connection: prompt, token,
// credentials or null, welcome, then acknowledged message exchanges.
func (s *chatServer) serveWriter(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	_, _ = conn.Write([]byte("Hello! Enter your personal hash or leave it empty to register.\n"))

	token, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	if strings.TrimRight(token, "\r\n") != s.validToken {
		s.log.Debug("Rejecting token")
		_, _ = conn.Write([]byte("null\n"))
		return
	}

	creds := fmt.Sprintf(`{"nickname": %q, "account_hash": %q}`, s.nickname, s.validToken)
	_, _ = conn.Write([]byte(creds + "\n"))
	_, _ = conn.Write([]byte("Welcome to chat! Post your message below.\n"))

	for {
		message, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		// The blank terminator line follows every message line.
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}

		message = strings.TrimRight(message, "\r\n")
		s.mu.Lock()
		s.received = append(s.received, message)
		s.mu.Unlock()
		select {
		case s.delivered <- message:
		default:
		}

		_, _ = conn.Write([]byte("Message send. Write more, when you want!\n"))
	}
}
