package torcontrol

import (
	"context"
	"sync"

	"github.com/pior/torcontrol/internal/coarsetime"
)

// NewChannelPool creates a channel-based connection pool.
// This is the default pool implementation.
func NewChannelPool(constructor func(ctx context.Context) (*Conn, error), maxSize int32) (Pool, error) {
	return &channelPool{
		constructor: constructor,
		maxSize:     maxSize,
		resources:   make(chan *channelResource, maxSize),
	}, nil
}

// channelResource implements Resource for channel pool.
type channelResource struct {
	conn *Conn
	pool *channelPool
}

func (r *channelResource) Value() *Conn {
	return r.conn
}

func (r *channelResource) Release() {
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	r.conn.Close()
	r.pool.removeResource(true)
}

// channelPool is a simple connection pool using a buffered channel as the
// idle list.
type channelPool struct {
	constructor func(ctx context.Context) (*Conn, error)
	maxSize     int32

	mu        sync.Mutex
	resources chan *channelResource
	size      int32
	closed    bool

	stats poolStatsCollector
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	for {
		// Try to get an idle connection from the pool first
		select {
		case res, ok := <-p.resources:
			if !ok {
				p.stats.recordAcquireError()
				return nil, ErrPoolClosed
			}
			p.stats.recordAcquireFromIdle()
			if res.conn.IsClosed() {
				// the daemon went away while it was idle
				res.Destroy()
				continue
			}
			return res, nil
		default:
			// No idle connection, create new one if under limit
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.stats.recordAcquireError()
			return nil, ErrPoolClosed
		}

		if p.size < p.maxSize {
			p.size++
			p.mu.Unlock()

			conn, err := p.constructor(ctx)
			if err != nil {
				p.mu.Lock()
				p.size--
				p.mu.Unlock()
				p.stats.recordAcquireError()
				return nil, err
			}

			p.stats.recordCreate()
			return &channelResource{conn: conn, pool: p}, nil
		}
		p.mu.Unlock()

		// Pool is full, wait for a connection to be released
		waitStart := coarsetime.Now()
		select {
		case res, ok := <-p.resources:
			if !ok {
				p.stats.recordAcquireError()
				return nil, ErrPoolClosed
			}
			p.stats.recordAcquireWait(coarsetime.Since(waitStart))
			p.stats.recordAcquireFromIdle()
			if res.conn.IsClosed() {
				// its slot is free again: loop to create a replacement
				res.Destroy()
				continue
			}
			return res, nil
		case <-ctx.Done():
			p.stats.recordAcquireError()
			return nil, ctx.Err()
		}
	}
}

func (p *channelPool) put(res *channelResource) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		res.conn.Close()
		p.removeResource(true)
		return
	}

	// Sending under the lock keeps Close from closing the channel underneath
	select {
	case p.resources <- res:
		p.mu.Unlock()
		p.stats.recordRelease()
	default:
		// Pool channel is full, close this connection
		p.mu.Unlock()
		res.conn.Close()
		p.removeResource(true)
	}
}

// removeResource frees the slot of a destroyed connection.
func (p *channelPool) removeResource(active bool) {
	p.mu.Lock()
	p.size--
	p.mu.Unlock()
	p.stats.recordDestroy(active)
}

func (p *channelPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.resources)
	p.mu.Unlock()

	// Close all idle connections
	for res := range p.resources {
		res.conn.Close()
		p.removeResource(false)
	}
}

// Stats returns a snapshot of pool statistics.
func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
