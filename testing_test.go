package torcontrol

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pior/torcontrol/internal/testutils"
)

const protocolInfoNull = "250-PROTOCOLINFO 1\r\n" +
	"250-AUTH METHODS=NULL\r\n" +
	"250-VERSION Tor=\"0.4.8.12\"\r\n" +
	"250 OK\r\n"

// newMockDaemon returns a connection that answers the NULL authentication
// handshake and passes every other command line (without CRLF) to
// handler. An empty answer means "unrecognized command".
func newMockDaemon(handler func(line string) string) *testutils.ConnectionMock {
	m := testutils.NewConnectionMock()
	m.Respond = func(cmd string) []string {
		line := strings.TrimSuffix(cmd, "\r\n")
		switch line {
		case "PROTOCOLINFO 1":
			return []string{protocolInfoNull}
		case "AUTHENTICATE":
			return []string{"250 OK\r\n"}
		}
		if handler != nil {
			if r := handler(line); r != "" {
				return []string{r}
			}
		}
		return []string{"510 Unrecognized command \"" + line + "\"\r\n"}
	}
	return m
}

// chunked splits s into pieces of at most size bytes.
func chunked(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	return append(out, s)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// mockDialer hands out mock daemons and remembers them.
type mockDialer struct {
	handler func(line string) string
	conns   chan *testutils.ConnectionMock
}

func newMockDialer(handler func(line string) string) *mockDialer {
	return &mockDialer{handler: handler, conns: make(chan *testutils.ConnectionMock, 100)}
}

func (d *mockDialer) dial(ctx context.Context) (net.Conn, error) {
	m := newMockDaemon(d.handler)
	d.conns <- m
	return m, nil
}
