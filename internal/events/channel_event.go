package events

import (
	"sync"
	"sync/atomic"
)

// ChannelEvent fans values out to listener channels. Sends never block: a
// listener whose buffer is full misses the value and the drop is counted.
type ChannelEvent[T any] struct {
	mu        sync.RWMutex
	channels  map[uint64]chan<- T
	nextID    uint64
	replay    replay[T]
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// NewChannelEvent creates a ChannelEvent. With sendLastEventOnListen set, a
// new listener immediately receives the most recent value, if there is one.
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels: make(map[uint64]chan<- T),
		replay:   newReplay[T](sendLastEventOnListen),
	}
}

// Listen registers ch and returns a function that unregisters it
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	last, haveLast := e.replay.snapshot()
	e.mu.Unlock()

	if haveLast {
		e.send(ch, last)
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to every registered channel
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	e.replay.remember(value)
	targets := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		targets = append(targets, ch)
	}
	e.mu.Unlock()

	for _, ch := range targets {
		e.send(ch, value)
	}
}

func (e *ChannelEvent[T]) send(ch chan<- T, value T) {
	select {
	case ch <- value:
		e.delivered.Add(1)
	default:
		e.dropped.Add(1)
	}
}

// Last returns the most recent value when the event replays to new listeners
func (e *ChannelEvent[T]) Last() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.replay.snapshot()
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}

// Dropped returns how many sends were skipped because a listener was full
func (e *ChannelEvent[T]) Dropped() uint64 {
	return e.dropped.Load()
}

// Delivered returns how many sends reached a listener
func (e *ChannelEvent[T]) Delivered() uint64 {
	return e.delivered.Load()
}
