package torcontrol

import (
	"context"
	"errors"
	"time"

	"github.com/pior/torcontrol/wire"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerState is the state of the client's circuit breaker.
type CircuitBreakerState = gobreaker.State

// NewCircuitBreakerSettings returns circuit breaker settings for a client
// of the daemon at addr. The breaker opens when at least 3 commands were
// seen in the interval and 60% of them failed at the transport level.
func NewCircuitBreakerSettings(addr string, maxRequests uint32, interval, timeout time.Duration) *gobreaker.Settings {
	return &gobreaker.Settings{
		Name:        addr,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
}

func newCircuitBreaker(settings gobreaker.Settings) *gobreaker.CircuitBreaker[wire.Reply] {
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = isBreakerSuccess
	}
	return gobreaker.NewCircuitBreaker[wire.Reply](settings)
}

// isBreakerSuccess counts failure replies as successes, the daemon is up
// and answering. So is a caller cancelling its own request.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return !ShouldCloseConnection(err)
}
