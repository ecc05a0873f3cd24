package torcontrol

import (
	"context"
	"testing"
	"time"
)

func TestPoolStats_ChannelPool(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor, 5)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Initial stats should be zero
	stats := pool.Stats()
	if stats.TotalConns != 0 {
		t.Errorf("Expected TotalConns=0, got %d", stats.TotalConns)
	}
	if stats.AcquireCount != 0 {
		t.Errorf("Expected AcquireCount=0, got %d", stats.AcquireCount)
	}

	// Acquire a connection
	res, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}

	stats = pool.Stats()
	if stats.TotalConns != 1 {
		t.Errorf("Expected TotalConns=1, got %d", stats.TotalConns)
	}
	if stats.ActiveConns != 1 {
		t.Errorf("Expected ActiveConns=1, got %d", stats.ActiveConns)
	}
	if stats.IdleConns != 0 {
		t.Errorf("Expected IdleConns=0, got %d", stats.IdleConns)
	}
	if stats.CreatedConns != 1 {
		t.Errorf("Expected CreatedConns=1, got %d", stats.CreatedConns)
	}

	// Release it
	res.Release()

	stats = pool.Stats()
	if stats.ActiveConns != 0 {
		t.Errorf("Expected ActiveConns=0 after release, got %d", stats.ActiveConns)
	}
	if stats.IdleConns != 1 {
		t.Errorf("Expected IdleConns=1 after release, got %d", stats.IdleConns)
	}

	// Acquire again, from idle, then destroy
	res, err = pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res.Destroy()

	stats = pool.Stats()
	if stats.AcquireCount != 2 {
		t.Errorf("Expected AcquireCount=2, got %d", stats.AcquireCount)
	}
	if stats.CreatedConns != 1 {
		t.Errorf("Expected CreatedConns=1, got %d", stats.CreatedConns)
	}
	if stats.DestroyedConns != 1 {
		t.Errorf("Expected DestroyedConns=1, got %d", stats.DestroyedConns)
	}
	if stats.TotalConns != 0 || stats.ActiveConns != 0 || stats.IdleConns != 0 {
		t.Errorf("Expected empty pool, got %+v", stats)
	}
}

func TestPoolStats_AcquireWait(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	res, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		res.Release()
	}()

	res2, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Release()

	stats := pool.Stats()
	if stats.AcquireWaitCount != 1 {
		t.Errorf("Expected AcquireWaitCount=1, got %d", stats.AcquireWaitCount)
	}
	if stats.AcquireWaitTimeNs == 0 {
		t.Error("Expected AcquireWaitTimeNs > 0")
	}
}

func TestPoolStats_AcquireErrors(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	res, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer res.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); err == nil {
		t.Fatal("Expected acquire to time out")
	}

	if got := pool.Stats().AcquireErrors; got != 1 {
		t.Errorf("Expected AcquireErrors=1, got %d", got)
	}
}

func TestClientStats(t *testing.T) {
	var c clientStatsCollector
	c.recordCommand()
	c.recordCommand()
	c.recordReplyError()
	c.recordTransportError()
	c.recordEvent()
	c.recordEventConn()

	got := c.snapshot()
	want := ClientStats{Commands: 2, ReplyErrors: 1, TransportErrors: 1, Events: 1, EventConns: 1}
	if got != want {
		t.Errorf("snapshot() = %+v, want %+v", got, want)
	}
}
