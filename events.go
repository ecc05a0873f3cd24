package torcontrol

import (
	"log/slog"
	"sync"

	"github.com/pior/torcontrol/internal"
	"github.com/pior/torcontrol/wire"
	"github.com/zeebo/xxh3"
)

// EventHandler receives asynchronous notifications.
//
// Events of one keyword are delivered in order, from a single goroutine.
// Events of different keywords may be delivered concurrently.
type EventHandler func(wire.Event)

const eventQueueSize = 256

// eventDispatcher fans events out to a fixed set of worker goroutines.
// An event is routed by the hash of its keyword, so a slow CIRC handler
// does not hold up BW events once there is more than one shard.
type eventDispatcher struct {
	handler EventHandler
	logger  *slog.Logger
	shards  []chan wire.Event
	wg      sync.WaitGroup
}

func newEventDispatcher(handler EventHandler, shards int, logger *slog.Logger) *eventDispatcher {
	if shards < 1 {
		shards = 1
	}

	d := &eventDispatcher{
		handler: handler,
		logger:  logger,
		shards:  make([]chan wire.Event, shards),
	}
	for i := range d.shards {
		ch := make(chan wire.Event, eventQueueSize)
		d.shards[i] = ch
		d.wg.Add(1)
		go d.run(ch)
	}
	return d
}

func (d *eventDispatcher) run(ch <-chan wire.Event) {
	defer d.wg.Done()
	for ev := range ch {
		d.handle(ev)
	}
}

func (d *eventDispatcher) handle(ev wire.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("torcontrol: event handler panicked", "keyword", ev.Keyword, "panic", r)
		}
	}()
	d.handler(ev)
}

// shardFor returns the worker index for an event keyword.
func (d *eventDispatcher) shardFor(keyword string) int {
	return internal.JumpHash(xxh3.HashString(keyword), len(d.shards))
}

// dispatch queues ev, blocking while its shard is full.
func (d *eventDispatcher) dispatch(ev wire.Event) {
	d.shards[d.shardFor(ev.Keyword)] <- ev
}

// close waits for queued events to be handled. dispatch must not be
// called anymore.
func (d *eventDispatcher) close() {
	for _, ch := range d.shards {
		close(ch)
	}
	d.wg.Wait()
}
