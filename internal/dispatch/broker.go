// Package dispatch is the host's generic tagged-event queue. Events are
// sequenced, fanned out to SSE subscribers and appended to a journal.
package dispatch

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

const subscriberBufSize = 256

// Recorder persists dispatched events.
type Recorder interface {
	Write(record any) error
}

// Broker fans out events to all subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan types.Event
	nextID      atomic.Int64
	seq         atomic.Int64
	dropped     atomic.Int64
	recorder    Recorder
}

// NewBroker creates a broker. recorder may be nil.
func NewBroker(recorder Recorder) *Broker {
	return &Broker{
		subscribers: make(map[int64]chan types.Event),
		recorder:    recorder,
	}
}

// Subscribe registers a new client. The channel is buffered; slow
// consumers have events dropped.
func (b *Broker) Subscribe() (int64, <-chan types.Event) {
	id := b.nextID.Add(1)
	ch := make(chan types.Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Dispatch sequences ev and delivers it without blocking. Events keep
// their emission order per subscriber.
func (b *Broker) Dispatch(ev types.Event) {
	ev.Seq = b.seq.Add(1)

	if b.recorder != nil {
		if err := b.recorder.Write(newRecord(ev)); err != nil {
			slog.Debug("dispatch journal write failed", "seq", ev.Seq, "error", err)
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
			slog.Warn("dispatch subscriber full, dropping event", "subscriber", id, "seq", ev.Seq, "kind", ev.Kind)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// LastSeq returns the sequence number of the most recent event.
func (b *Broker) LastSeq() int64 {
	return b.seq.Load()
}

// Dropped returns how many subscriber deliveries were dropped.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}
