package promexporter

import (
	"errors"

	"github.com/pior/torcontrol"
	"github.com/pior/torcontrol/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// StatsSource is what a client exposes to the exporter. *torcontrol.Client
// implements it.
type StatsSource interface {
	Stats() torcontrol.ClientStats
	PoolStats() torcontrol.PoolStats
	CircuitBreakerState() torcontrol.CircuitBreakerState
}

// ClientMetrics holds all client-related Prometheus metrics
type ClientMetrics struct {
	registry prometheus.Registerer

	// Operations, recorded by the caller
	opsTotal *prometheus.CounterVec

	// Circuit Breaker
	circuitTransitions *prometheus.CounterVec
}

// NewClientMetrics creates and registers all client metrics
func NewClientMetrics(registry prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		registry: registry,
		opsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torcontrol_operations_total",
				Help: "Total number of control commands issued by the caller",
			},
			[]string{"status"}, // success, reply_error, transport_error
		),
		circuitTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torcontrol_circuit_breaker_transitions_total",
				Help: "Total circuit breaker state transitions",
			},
			[]string{"server", "from", "to"},
		),
	}

	registry.MustRegister(m.opsTotal, m.circuitTransitions)

	return m
}

// RecordOperation records the result of one command
func (m *ClientMetrics) RecordOperation(err error) {
	m.opsTotal.WithLabelValues(operationStatus(err)).Inc()
}

func operationStatus(err error) string {
	var replyErr *wire.ReplyError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &replyErr):
		return "reply_error"
	default:
		return "transport_error"
	}
}

// RecordCircuitBreakerTransition records a state change
func (m *ClientMetrics) RecordCircuitBreakerTransition(server string, from, to gobreaker.State) {
	m.circuitTransitions.WithLabelValues(server, from.String(), to.String()).Inc()
}

// OnStateChange returns a gobreaker.Settings.OnStateChange callback that
// records transitions. The breaker name is used as the server label.
func (m *ClientMetrics) OnStateChange() func(name string, from, to gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		m.RecordCircuitBreakerTransition(name, from, to)
	}
}

// Watch exports the stats of src under the given server label. The stats
// are read on every scrape.
func (m *ClientMetrics) Watch(server string, src StatsSource) error {
	return m.registry.Register(newStatsCollector(server, src))
}

// statsCollector turns StatsSource snapshots into const metrics.
type statsCollector struct {
	src StatsSource

	commands        *prometheus.Desc
	replyErrors     *prometheus.Desc
	transportErrors *prometheus.Desc
	events          *prometheus.Desc
	eventConns      *prometheus.Desc

	poolConnections *prometheus.Desc
	poolCreated     *prometheus.Desc
	poolDestroyed   *prometheus.Desc
	poolAcquires    *prometheus.Desc
	poolWaits       *prometheus.Desc
	poolWaitSeconds *prometheus.Desc
	poolErrors      *prometheus.Desc

	circuitState *prometheus.Desc
}

func newStatsCollector(server string, src StatsSource) *statsCollector {
	labels := prometheus.Labels{"server": server}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc("torcontrol_"+name, help, variable, labels)
	}

	return &statsCollector{
		src: src,

		commands:        desc("client_commands_total", "Commands sent to the daemon"),
		replyErrors:     desc("client_reply_errors_total", "Commands answered with a failure status code"),
		transportErrors: desc("client_transport_errors_total", "Commands that failed before a reply was decoded"),
		events:          desc("client_events_total", "Asynchronous notifications delivered to the handler"),
		eventConns:      desc("client_event_connections_total", "Event connections opened"),

		poolConnections: desc("pool_connections", "Connection pool statistics", "state"), // total, active, idle
		poolCreated:     desc("pool_connections_created_total", "Connections created"),
		poolDestroyed:   desc("pool_connections_destroyed_total", "Connections destroyed"),
		poolAcquires:    desc("pool_acquire_total", "Connection acquire attempts"),
		poolWaits:       desc("pool_acquire_wait_total", "Acquires that had to wait for a connection"),
		poolWaitSeconds: desc("pool_acquire_wait_seconds_total", "Time spent waiting for a connection"),
		poolErrors:      desc("pool_acquire_errors_total", "Failed acquire attempts"),

		circuitState: desc("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)"),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.commands, s.Commands)
	counter(c.replyErrors, s.ReplyErrors)
	counter(c.transportErrors, s.TransportErrors)
	counter(c.events, s.Events)
	counter(c.eventConns, s.EventConns)

	p := c.src.PoolStats()
	ch <- prometheus.MustNewConstMetric(c.poolConnections, prometheus.GaugeValue, float64(p.TotalConns), "total")
	ch <- prometheus.MustNewConstMetric(c.poolConnections, prometheus.GaugeValue, float64(p.ActiveConns), "active")
	ch <- prometheus.MustNewConstMetric(c.poolConnections, prometheus.GaugeValue, float64(p.IdleConns), "idle")
	counter(c.poolCreated, p.CreatedConns)
	counter(c.poolDestroyed, p.DestroyedConns)
	counter(c.poolAcquires, p.AcquireCount)
	counter(c.poolWaits, p.AcquireWaitCount)
	counter(c.poolErrors, p.AcquireErrors)
	ch <- prometheus.MustNewConstMetric(c.poolWaitSeconds, prometheus.CounterValue, float64(p.AcquireWaitTimeNs)/1e9)

	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, float64(c.src.CircuitBreakerState()))
}
