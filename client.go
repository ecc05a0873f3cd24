package torcontrol

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/pior/torcontrol/wire"
	"github.com/sony/gobreaker/v2"
)

// DefaultAddr is the daemon's default ControlPort.
const DefaultAddr = "127.0.0.1:9051"

const defaultMaxSize = 4

// Config holds configuration for the control client.
type Config struct {
	// Addr is the control port address, or the socket path when Network
	// is "unix". Default: DefaultAddr.
	Addr string

	// Network is "tcp" or "unix". Default: "tcp".
	Network string

	// MaxSize is the maximum number of connections in the pool.
	// Default: 4.
	MaxSize int32

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory function.
	// If nil, uses the default channel-based pool.
	// To use puddle pool: Pool: torcontrol.NewPuddlePool
	Pool PoolFactory

	// Auth holds the credentials every new connection authenticates with.
	Auth AuthConfig

	// CircuitBreakerSettings enables a circuit breaker in front of the
	// daemon. See NewCircuitBreakerSettings. If nil, no circuit breaker
	// is used.
	CircuitBreakerSettings *gobreaker.Settings

	// EventHandler receives the notifications subscribed to with
	// SetEvents. Required to call SetEvents.
	EventHandler EventHandler

	// EventShards is the number of goroutines delivering events.
	// Default: 1, which delivers all events in arrival order.
	EventShards int

	// Logger receives client diagnostics. If nil, nothing is logged.
	Logger *slog.Logger

	// for testing purposes only
	dial func(ctx context.Context) (net.Conn, error)
}

// Client is a Tor control port client.
//
// Commands run on a pool of authenticated connections, so concurrent
// callers do not queue behind each other. Event subscriptions live on a
// separate connection owned by the client.
//
// There is no retry: a command that fails at the transport level returns
// the error, and the broken connection is replaced on the next acquire.
type Client struct {
	config  Config
	logger  *slog.Logger
	pool    Pool
	breaker *gobreaker.CircuitBreaker[wire.Reply]
	stats   clientStatsCollector

	eventsMu   sync.Mutex
	eventConn  *Conn
	dispatcher *eventDispatcher
	closed     bool
}

// NewClient creates a client. No connection is made until the first
// command.
func NewClient(config Config) (*Client, error) {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.Network == "" {
		config.Network = "tcp"
	}
	if config.MaxSize <= 0 {
		config.MaxSize = defaultMaxSize
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	if config.Pool == nil {
		config.Pool = NewChannelPool
	}

	logger := config.Logger
	if logger == nil {
		logger = discardLogger
	}

	c := &Client{
		config: config,
		logger: logger.With("addr", config.Addr),
	}

	pool, err := config.Pool(func(ctx context.Context) (*Conn, error) {
		return c.connect(ctx, nil)
	}, config.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("torcontrol: creating pool: %w", err)
	}
	c.pool = pool

	if config.CircuitBreakerSettings != nil {
		c.breaker = newCircuitBreaker(*config.CircuitBreakerSettings)
	}
	if config.EventHandler != nil {
		c.dispatcher = newEventDispatcher(config.EventHandler, config.EventShards, c.logger)
	}

	return c, nil
}

// connect dials and authenticates a new connection.
func (c *Client) connect(ctx context.Context, onEvent func(wire.Event)) (*Conn, error) {
	var nc net.Conn
	var err error
	if c.config.dial != nil {
		nc, err = c.config.dial(ctx)
	} else {
		nc, err = c.config.Dialer.DialContext(ctx, c.config.Network, c.config.Addr)
	}
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}

	conn := NewConn(nc, ConnOptions{OnEvent: onEvent, Logger: c.logger})
	if err := Authenticate(ctx, conn, c.config.Auth); err != nil {
		conn.Close()
		return nil, err
	}

	c.logger.Debug("torcontrol: connection established")
	return conn, nil
}

// Do sends cmd on a pooled connection and returns its decoded reply.
//
// A failure reply is returned along with its error, a *wire.ReplyError
// that matches the wire.Err* sentinels with errors.Is.
func (c *Client) Do(ctx context.Context, cmd wire.Command) (wire.Reply, error) {
	c.stats.recordCommand()

	var reply wire.Reply
	var err error
	if c.breaker != nil {
		reply, err = c.breaker.Execute(func() (wire.Reply, error) {
			return c.exec(ctx, cmd)
		})
	} else {
		reply, err = c.exec(ctx, cmd)
	}

	if err != nil {
		c.stats.recordTransportError()
		return nil, err
	}
	if err := replyError(reply); err != nil {
		c.stats.recordReplyError()
		return reply, err
	}
	return reply, nil
}

// exec runs one command with proper connection management: a connection
// the command broke is destroyed, any other goes back to the pool.
func (c *Client) exec(ctx context.Context, cmd wire.Command) (wire.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	conn := res.Value()
	reply, err := conn.Do(ctx, cmd)
	if err != nil && (conn.IsClosed() || ShouldCloseConnection(err)) {
		c.logger.Debug("torcontrol: destroying connection", "error", err)
		res.Destroy()
		return nil, err
	}

	res.Release()
	return reply, err
}

// GetConf returns the values of configuration options. Options set to
// their default come back as entries without a value.
func (c *Client) GetConf(ctx context.Context, names ...string) (*wire.KeywordReply, error) {
	reply, err := c.Do(ctx, wire.NewGetConf(names...))
	if err != nil {
		return nil, err
	}
	return reply.(*wire.KeywordReply), nil
}

// SetConf changes configuration options.
func (c *Client) SetConf(ctx context.Context, values ...wire.ConfValue) error {
	_, err := c.Do(ctx, &wire.SetConf{Values: values})
	return err
}

// ResetConf resets configuration options to their default.
func (c *Client) ResetConf(ctx context.Context, names ...string) error {
	cmd := wire.NewResetConf()
	for _, name := range names {
		cmd.AddDefault(name)
	}
	_, err := c.Do(ctx, cmd)
	return err
}

// GetInfo returns runtime information for keys.
func (c *Client) GetInfo(ctx context.Context, keys ...string) (*wire.KeywordReply, error) {
	reply, err := c.Do(ctx, wire.NewGetInfo(keys...))
	if err != nil {
		return nil, err
	}
	return reply.(*wire.KeywordReply), nil
}

// Signal sends a signal (wire.SignalNewNym, ...) to the daemon.
func (c *Client) Signal(ctx context.Context, name string) error {
	_, err := c.Do(ctx, &wire.Signal{Name: name})
	return err
}

// SaveConf writes the running configuration to the torrc.
func (c *Client) SaveConf(ctx context.Context, force bool) error {
	_, err := c.Do(ctx, &wire.SaveConf{Force: force})
	return err
}

// ProtocolInfo returns the daemon's version and authentication methods.
func (c *Client) ProtocolInfo(ctx context.Context) (*wire.ProtocolInfoReply, error) {
	reply, err := c.Do(ctx, wire.ProtocolInfo{})
	if err != nil {
		return nil, err
	}
	return reply.(*wire.ProtocolInfoReply), nil
}

// SetEvents replaces the set of subscribed events. Events are delivered
// to Config.EventHandler. The subscription lives on a dedicated
// connection; if that connection fails, call SetEvents again.
//
// An empty list unsubscribes from everything.
func (c *Client) SetEvents(ctx context.Context, extended bool, events ...string) error {
	if c.dispatcher == nil {
		return ErrNoEventHandler
	}

	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	if c.eventConn == nil || c.eventConn.IsClosed() {
		conn, err := c.connect(ctx, c.deliverEvent)
		if err != nil {
			c.stats.recordTransportError()
			return err
		}
		c.eventConn = conn
		c.stats.recordEventConn()
	}

	c.stats.recordCommand()
	var reply wire.BasicReply
	if err := c.eventConn.Exec(ctx, &wire.SetEvents{Events: events, Extended: extended}, &reply); err != nil {
		c.stats.recordTransportError()
		return err
	}
	if err := reply.Err(); err != nil {
		c.stats.recordReplyError()
		return err
	}
	return nil
}

func (c *Client) deliverEvent(ev wire.Event) {
	c.stats.recordEvent()
	c.dispatcher.dispatch(ev)
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// PoolStats returns a snapshot of the connection pool statistics.
func (c *Client) PoolStats() PoolStats {
	return c.pool.Stats()
}

// CircuitBreakerState returns the breaker state, or StateClosed when no
// breaker is configured.
func (c *Client) CircuitBreakerState() CircuitBreakerState {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// Close closes the pool and the event connection, then waits for queued
// events to be handled. It must not be called from the EventHandler.
func (c *Client) Close() {
	c.eventsMu.Lock()
	if c.closed {
		c.eventsMu.Unlock()
		return
	}
	c.closed = true
	eventConn := c.eventConn
	c.eventConn = nil
	c.eventsMu.Unlock()

	c.pool.Close()

	if eventConn != nil {
		eventConn.Close()
	}
	if c.dispatcher != nil {
		c.dispatcher.close()
	}
}
