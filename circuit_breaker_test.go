package torcontrol

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pior/torcontrol/wire"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCircuitBreakerSettings(t *testing.T) {
	settings := NewCircuitBreakerSettings("127.0.0.1:9051", 2, time.Minute, 30*time.Second)

	assert.Equal(t, "127.0.0.1:9051", settings.Name)
	assert.Equal(t, uint32(2), settings.MaxRequests)
	assert.Equal(t, time.Minute, settings.Interval)
	assert.Equal(t, 30*time.Second, settings.Timeout)

	tests := []struct {
		name   string
		counts gobreaker.Counts
		trip   bool
	}{
		{"too few requests", gobreaker.Counts{Requests: 2, TotalFailures: 2}, false},
		{"low failure ratio", gobreaker.Counts{Requests: 10, TotalFailures: 5}, false},
		{"high failure ratio", gobreaker.Counts{Requests: 10, TotalFailures: 6}, true},
		{"all failing", gobreaker.Counts{Requests: 3, TotalFailures: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.trip, settings.ReadyToTrip(tt.counts))
		})
	}
}

func TestIsBreakerSuccess(t *testing.T) {
	assert.True(t, isBreakerSuccess(nil))
	assert.True(t, isBreakerSuccess(context.Canceled))
	assert.True(t, isBreakerSuccess(&wire.ReplyError{Code: wire.StatusUnrecognizedEntity}))

	assert.False(t, isBreakerSuccess(&ConnectionError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, isBreakerSuccess(&wire.ParseError{Kind: wire.MalformedStatusCode}))
	assert.False(t, isBreakerSuccess(context.DeadlineExceeded))
}

func TestClient_CircuitBreakerTrips(t *testing.T) {
	dialErr := errors.New("connection refused")
	client, err := NewClient(Config{
		CircuitBreakerSettings: NewCircuitBreakerSettings("test", 1, time.Minute, time.Minute),
		dial: func(context.Context) (net.Conn, error) {
			return nil, dialErr
		},
	})
	require.NoError(t, err)
	defer client.Close()

	for range 3 {
		_, err := client.Do(testContext(t), &wire.Signal{Name: wire.SignalNewNym})
		assert.ErrorIs(t, err, dialErr)
	}
	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	_, err = client.Do(testContext(t), &wire.Signal{Name: wire.SignalNewNym})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, uint64(4), client.Stats().TransportErrors)
}

func TestClient_CircuitBreakerIgnoresReplyErrors(t *testing.T) {
	d := newMockDialer(nil)
	client, err := NewClient(Config{
		CircuitBreakerSettings: NewCircuitBreakerSettings("test", 1, time.Minute, time.Minute),
		dial:                   d.dial,
	})
	require.NoError(t, err)
	defer client.Close()

	for range 5 {
		_, err := client.Do(testContext(t), wire.Keyword("BOGUS"))
		assert.ErrorIs(t, err, wire.ErrUnrecognizedCommand)
	}
	assert.Equal(t, gobreaker.StateClosed, client.CircuitBreakerState())
}

func TestClient_NoCircuitBreaker(t *testing.T) {
	client, err := NewClient(Config{dial: newMockDialer(nil).dial})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, gobreaker.StateClosed, client.CircuitBreakerState())
}
