package testutils

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
//
// Reads return the queued chunks one at a time, so a reply split across
// several chunks arrives in several reads. When the queue is empty Read
// blocks until more chunks are pushed or the mock is closed.
type ConnectionMock struct {
	mu       sync.Mutex
	cond     *sync.Cond
	chunks   [][]byte
	writeBuf bytes.Buffer
	closed   bool

	// Respond, when set, is called with every write and its result is
	// queued as the next chunks to read.
	Respond func(command string) []string
}

// NewConnectionMock creates a new mock connection with pre-configured response chunks
func NewConnectionMock(chunks ...string) *ConnectionMock {
	m := &ConnectionMock{}
	m.cond = sync.NewCond(&m.mu)
	m.Push(chunks...)
	return m
}

// Push queues more chunks for reading.
func (m *ConnectionMock) Push(chunks ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		if c != "" {
			m.chunks = append(m.chunks, []byte(c))
		}
	}
	m.cond.Broadcast()
}

func (m *ConnectionMock) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.chunks) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.chunks) == 0 {
		return 0, io.EOF
	}

	n := copy(b, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	if len(m.chunks[0]) == 0 {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *ConnectionMock) Write(b []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, net.ErrClosed
	}
	m.writeBuf.Write(b)
	respond := m.Respond
	m.mu.Unlock()

	if respond != nil {
		m.Push(respond(string(b))...)
	}
	return len(b), nil
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
	return nil
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9051}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// GetWrittenRequest returns the raw command bytes written to the mock connection
func (m *ConnectionMock) GetWrittenRequest() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.String()
}
