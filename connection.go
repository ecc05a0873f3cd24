package torcontrol

import (
	"context"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/pior/torcontrol/internal"
	"github.com/pior/torcontrol/internal/coarsetime"
	"github.com/pior/torcontrol/wire"
)

const (
	readBufferSize = 4 * 1024
	// Read buffers that grew for a large data block are not pooled
	maxPooledReadBuffer = 1024 * 1024
)

var readBufferPool = internal.NewBytePool(readBufferSize, maxPooledReadBuffer)

var discardLogger = slog.New(slog.DiscardHandler)

// ConnOptions configures a Conn.
type ConnOptions struct {
	// OnEvent receives every asynchronous notification, in arrival order,
	// from the receive goroutine. The event owns its bytes.
	// If nil, notifications are dropped.
	OnEvent func(wire.Event)

	// Logger receives connection diagnostics. If nil, nothing is logged.
	Logger *slog.Logger
}

// Conn is a single control connection.
//
// A receive goroutine owns the socket's read side: it accumulates bytes,
// decodes the reply of the command in flight and hands asynchronous
// notifications to OnEvent. Commands are sent one at a time; concurrent
// callers wait their turn, and replies are matched in FIFO order.
type Conn struct {
	conn    net.Conn
	onEvent func(wire.Event)
	logger  *slog.Logger

	// cmdMu is held for the whole write/wait cycle of a command
	cmdMu sync.Mutex

	mu       sync.Mutex
	pending  *call
	closed   bool
	err      error
	lastUsed time.Time

	done chan struct{} // closed when the receive goroutine exits
}

// call is a command waiting for its reply.
type call struct {
	reply wire.Reply
	err   error
	done  chan struct{}
}

// NewConn starts serving an established control connection.
func NewConn(nc net.Conn, opts ConnOptions) *Conn {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	c := &Conn{
		conn:     nc,
		onEvent:  opts.OnEvent,
		logger:   logger.With("addr", nc.RemoteAddr().String()),
		lastUsed: coarsetime.Now(),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Exec sends cmd and decodes its reply into reply.
//
// The returned error is a transport error only: a failure reply from the
// daemon is reported by reply itself. If ctx ends before the reply
// arrives the connection is closed, since the late reply could no longer
// be matched to its command.
func (c *Conn) Exec(ctx context.Context, cmd wire.Command, reply wire.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	cl := &call{reply: reply, done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		return err
	}
	// Registered before writing: the reply may arrive before Write returns
	c.pending = cl
	c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	} else {
		c.conn.SetWriteDeadline(time.Time{})
	}

	if err := wire.WriteCommand(c.conn, cmd); err != nil {
		err = &ConnectionError{Op: "write", Err: err}
		c.closeWithError(err)
		return err
	}

	select {
	case <-cl.done:
		c.mu.Lock()
		c.lastUsed = coarsetime.Now()
		c.mu.Unlock()
		return cl.err
	case <-ctx.Done():
		c.closeWithError(ErrConnectionClosed)
		return ctx.Err()
	}
}

// Do sends cmd and returns its decoded reply.
func (c *Conn) Do(ctx context.Context, cmd wire.Command) (wire.Reply, error) {
	reply := cmd.NewReply()
	if err := c.Exec(ctx, cmd, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// readLoop runs until the socket fails or the connection is closed.
func (c *Conn) readLoop() {
	defer close(c.done)

	bp := readBufferPool.Get()
	buf := *bp
	defer func() {
		*bp = buf
		readBufferPool.Put(bp)
	}()

	for {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, cap(buf))
		}

		n, err := c.conn.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]

		if n > 0 {
			rest, perr := c.consume(buf)
			if perr != nil {
				c.closeWithError(perr)
				return
			}
			// Keep the undecoded tail at the front of the buffer
			buf = append(buf[:0], rest...)
		}

		if err != nil {
			c.closeWithError(&ConnectionError{Op: "read", Err: err})
			return
		}
	}
}

// consume decodes everything it can from buf and returns the bytes that
// still need more data.
func (c *Conn) consume(buf []byte) ([]byte, error) {
	for len(buf) > 0 {
		c.mu.Lock()
		cl := c.pending
		c.mu.Unlock()

		if cl == nil {
			events, rest := wire.SplitAsync(buf)
			c.dispatch(events)
			if len(rest) == 0 {
				return rest, nil
			}

			body, after, err := wire.ReadBody(rest)
			if wire.IsIncomplete(err) {
				return rest, nil
			}
			if err != nil {
				return nil, err
			}
			c.logger.Debug("torcontrol: dropping unsolicited reply", "code", int(body.Code()))
			buf = after
			continue
		}

		events, rest, err := wire.Read(buf, cl.reply)
		c.dispatch(events)
		if wire.IsIncomplete(err) {
			return rest, nil
		}
		if err != nil {
			return nil, err
		}
		c.complete(cl)
		buf = rest
	}
	return buf, nil
}

func (c *Conn) dispatch(events []wire.Body) {
	if c.onEvent == nil {
		return
	}
	for _, body := range events {
		c.onEvent(wire.ParseEvent(body.Clone()))
	}
}

func (c *Conn) complete(cl *call) {
	c.mu.Lock()
	if c.pending != cl {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	close(cl.done)
}

// closeWithError closes the socket and fails the command in flight.
// Only the first error is kept.
func (c *Conn) closeWithError(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	cl := c.pending
	c.pending = nil
	c.mu.Unlock()

	if err != ErrConnectionClosed {
		c.logger.Warn("torcontrol: closing connection", "error", err)
	}
	c.conn.Close()

	if cl != nil {
		cl.err = err
		close(cl.done)
	}
}

// Close closes the connection and waits for the receive goroutine to
// exit. No event is delivered after Close returns.
func (c *Conn) Close() error {
	c.closeWithError(ErrConnectionClosed)
	<-c.done
	return nil
}

// IsClosed returns whether the connection is closed
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Err returns the error that closed the connection, or nil if it is open.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// LastUsed returns when the connection last completed a command
func (c *Conn) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// RemoteAddr returns the daemon's address
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
