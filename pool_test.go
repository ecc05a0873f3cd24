package torcontrol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConstructor(ctx context.Context) (*Conn, error) {
	return NewConn(newMockDaemon(nil), ConnOptions{}), nil
}

var poolFactories = map[string]PoolFactory{
	"channel": NewChannelPool,
	"puddle":  NewPuddlePool,
}

func TestPool_AcquireRelease(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(mockConstructor, 2)
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(testContext(t))
			require.NoError(t, err)
			conn := res.Value()
			require.NotNil(t, conn)
			res.Release()

			// The idle connection is reused
			res, err = pool.Acquire(testContext(t))
			require.NoError(t, err)
			assert.Same(t, conn, res.Value())
			res.Release()

			assert.Equal(t, uint64(1), pool.Stats().CreatedConns)
		})
	}
}

func TestPool_WaitsWhenFull(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(mockConstructor, 1)
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(testContext(t))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err = pool.Acquire(ctx)
			assert.ErrorIs(t, err, context.DeadlineExceeded)

			// A release unblocks a waiter
			got := make(chan Resource, 1)
			go func() {
				r, err := pool.Acquire(testContext(t))
				if err == nil {
					got <- r
				}
			}()
			time.Sleep(10 * time.Millisecond)
			res.Release()

			select {
			case r := <-got:
				r.Release()
			case <-time.After(5 * time.Second):
				t.Fatal("waiter was not unblocked")
			}
		})
	}
}

func TestPool_DestroyFreesSlot(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(mockConstructor, 1)
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(testContext(t))
			require.NoError(t, err)
			first := res.Value()
			res.Destroy()
			// puddle destroys in the background
			assert.Eventually(t, first.IsClosed, time.Second, time.Millisecond)

			res, err = pool.Acquire(testContext(t))
			require.NoError(t, err)
			assert.NotSame(t, first, res.Value())
			res.Release()
		})
	}
}

func TestPool_ReplacesConnectionClosedWhileIdle(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(mockConstructor, 1)
			require.NoError(t, err)
			defer pool.Close()

			res, err := pool.Acquire(testContext(t))
			require.NoError(t, err)
			first := res.Value()
			res.Release()

			first.Close()

			res, err = pool.Acquire(testContext(t))
			require.NoError(t, err)
			assert.NotSame(t, first, res.Value())
			assert.False(t, res.Value().IsClosed())
			res.Release()
		})
	}
}

func TestPool_ConstructorError(t *testing.T) {
	boom := errors.New("dial failed")
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(func(context.Context) (*Conn, error) { return nil, boom }, 1)
			require.NoError(t, err)
			defer pool.Close()

			_, err = pool.Acquire(testContext(t))
			assert.ErrorIs(t, err, boom)

			// The failed attempt did not use up the slot
			_, err = pool.Acquire(testContext(t))
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestPool_Close(t *testing.T) {
	for name, factory := range poolFactories {
		t.Run(name, func(t *testing.T) {
			pool, err := factory(mockConstructor, 2)
			require.NoError(t, err)

			res, err := pool.Acquire(testContext(t))
			require.NoError(t, err)
			conn := res.Value()
			res.Release()

			pool.Close()
			assert.True(t, conn.IsClosed())

			_, err = pool.Acquire(testContext(t))
			assert.ErrorIs(t, err, ErrPoolClosed)
		})
	}
}

func TestChannelPool_ReleaseAfterClose(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor, 2)
	require.NoError(t, err)

	res, err := pool.Acquire(testContext(t))
	require.NoError(t, err)

	pool.Close()
	res.Release()
	assert.True(t, res.Value().IsClosed())
	assert.Equal(t, int32(0), pool.Stats().TotalConns)
}
