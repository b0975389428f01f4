package events

import (
	"log/slog"
	"sync"
)

// Publisher is the write side of the bus
type Publisher interface {
	Publish(e Event)
}

// Handler processes one event. Handlers run on the subscriber's own goroutine.
type Handler func(e Event)

// Bus delivers events asynchronously, in publish order, to each subscriber.
// Publish never blocks: every subscriber owns an unbounded FIFO.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Family][]*Subscription
	all    []*Subscription
	closed bool
	logger *slog.Logger
}

// NewBus creates a new event bus
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Family][]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a handler for the given families. With no families
// the handler receives everything.
func (b *Bus) Subscribe(name string, handler Handler, families ...Family) *Subscription {
	if len(families) == 0 {
		families = []Family{FamilyLocation, FamilyDiscovery, FamilyCoverage}
	}

	s := &Subscription{
		name:    name,
		handler: handler,
		logger:  b.logger,
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.done)
		return s
	}
	for _, f := range families {
		b.subs[f] = append(b.subs[f], s)
	}
	b.all = append(b.all, s)
	go s.loop()

	return s
}

// Publish enqueues the event for every subscriber of its family
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs[e.Type.Family()] {
		s.enqueue(e)
	}
}

// Close stops accepting events and waits for every subscriber to drain
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	all := b.all
	b.mu.Unlock()

	for _, s := range all {
		s.stop()
	}
	for _, s := range all {
		<-s.done
	}
}

// Subscription is one registered handler with its private queue
type Subscription struct {
	name    string
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	stopped bool
	done    chan struct{}
}

func (s *Subscription) enqueue(e Event) {
	s.mu.Lock()
	if !s.stopped {
		s.queue = append(s.queue, e)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *Subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Pending returns the number of queued, undelivered events
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Done is closed once the subscriber has drained and exited
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.stopped {
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.dispatch(e)
	}
}

func (s *Subscription) dispatch(e Event) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("event_handler_panic", "subscriber", s.name, "type", e.Type, "panic", p)
		}
	}()
	s.handler(e)
}
