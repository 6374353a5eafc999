package notifications

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher fans events out to sinks on a background worker. Emit never
// blocks on delivery: when the queue is full the event is dropped and logged.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration

	wg       sync.WaitGroup
	closeMu  sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, queueSize),
		timeout: 10 * time.Second,
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) Emit(_ context.Context, e Event) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		log.Printf("[notify] dispatcher closed, dropping %s for %s", e.Type, e.Room())
		return
	}
	select {
	case d.queue <- e:
	default:
		log.Printf("[notify] queue full, dropping %s for %s", e.Type, e.Room())
	}
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := s.Deliver(ctx, e); err != nil {
			log.Printf("[notify] deliver %s (%s) to %s failed: %v", e.ID, e.Type, e.Room(), err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		d.closeMu.Lock()
		d.closed = true
		close(d.queue)
		d.closeMu.Unlock()
		d.wg.Wait()
	})
}
