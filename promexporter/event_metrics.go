package promexporter

import (
	"strconv"
	"strings"

	"github.com/pior/torcontrol"
	"github.com/pior/torcontrol/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics counts asynchronous notifications
type EventMetrics struct {
	eventsTotal    *prometheus.CounterVec
	bandwidthBytes *prometheus.CounterVec
}

// NewEventMetrics creates and registers all event metrics
func NewEventMetrics(registry prometheus.Registerer) *EventMetrics {
	m := &EventMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torcontrol_events_total",
				Help: "Asynchronous notifications received, by keyword",
			},
			[]string{"keyword"},
		),
		bandwidthBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torcontrol_bandwidth_bytes_total",
				Help: "Bytes reported by BW events",
			},
			[]string{"direction"}, // read, written
		),
	}

	registry.MustRegister(m.eventsTotal, m.bandwidthBytes)

	return m
}

// RecordEvent records one notification. BW events also feed the
// bandwidth counters.
func (m *EventMetrics) RecordEvent(ev wire.Event) {
	m.eventsTotal.WithLabelValues(ev.Keyword).Inc()

	if ev.Keyword == wire.EventBW {
		// 650 BW <read> <written> [extended fields]
		fields := strings.Fields(ev.Text())
		if len(fields) < 2 {
			return
		}
		read, err1 := strconv.ParseUint(fields[0], 10, 64)
		written, err2 := strconv.ParseUint(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			return
		}
		m.bandwidthBytes.WithLabelValues("read").Add(float64(read))
		m.bandwidthBytes.WithLabelValues("written").Add(float64(written))
	}
}

// Wrap returns an event handler that records every event before passing
// it to next. next may be nil.
func (m *EventMetrics) Wrap(next torcontrol.EventHandler) torcontrol.EventHandler {
	return func(ev wire.Event) {
		m.RecordEvent(ev)
		if next != nil {
			next(ev)
		}
	}
}
