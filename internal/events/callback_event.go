package events

import (
	"sync"
)

// CallbackEvent calls listener functions synchronously on Notify
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	replay    replay[T]
}

// NewCallbackEvent creates a CallbackEvent. With sendLastEventOnListen set, a
// new listener is called right away with the most recent value, if there is one.
func NewCallbackEvent[T any](sendLastEventOnListen bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners: make(map[uint64]func(T)),
		replay:    newReplay[T](sendLastEventOnListen),
	}
}

// Listen registers callback and returns a function that unregisters it
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	last, haveLast := e.replay.snapshot()
	e.mu.Unlock()

	// called outside the lock so the callback may Listen or Notify
	if haveLast {
		callback(last)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify calls every registered callback with value
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	e.replay.remember(value)
	callbacks := make([]func(T), 0, len(e.listeners))
	for _, cb := range e.listeners {
		callbacks = append(callbacks, cb)
	}
	e.mu.Unlock()

	for _, cb := range callbacks {
		cb(value)
	}
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
