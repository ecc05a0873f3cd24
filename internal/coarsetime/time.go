// Package coarsetime is a clock that is refreshed every 50ms by a
// background goroutine. Reading it is much cheaper than time.Now, which
// matters on the per-command path of a connection.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Pointer[time.Time]

func init() {
	t := time.Now()
	now.Store(&t)

	ticker := time.NewTicker(tick)
	go func() {
		for t := range ticker.C {
			now.Store(&t)
		}
	}()
}

// Now returns the current time, at most one tick old.
func Now() time.Time {
	return *now.Load()
}

// Since returns the time elapsed since t on the coarse clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
