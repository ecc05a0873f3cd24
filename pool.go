package torcontrol

import "context"

// Pool hands out authenticated connections. A control connection runs one
// command at a time, so concurrent callers each need their own.
type Pool interface {
	// Acquire returns an idle connection or creates one, waiting for a
	// release when the pool is full.
	Acquire(ctx context.Context) (Resource, error)

	// Stats returns a snapshot of pool statistics
	Stats() PoolStats

	// Close destroys idle connections; acquired ones are destroyed on release.
	Close()
}

// Resource is an acquired connection.
type Resource interface {
	Value() *Conn

	// Release returns the connection to the pool
	Release()

	// Destroy closes the connection and frees its slot
	Destroy()
}

// PoolFactory creates a Pool of at most maxSize connections built by
// constructor.
type PoolFactory func(constructor func(ctx context.Context) (*Conn, error), maxSize int32) (Pool, error)
