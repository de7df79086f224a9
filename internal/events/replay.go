package events

// replay holds the last notified value so late listeners can be primed with it.
// It is not safe for concurrent use; owners guard it with their own mutex.
type replay[T any] struct {
	enabled bool
	last    *T
}

func newReplay[T any](enabled bool) replay[T] {
	return replay[T]{enabled: enabled}
}

func (r *replay[T]) remember(value T) {
	if !r.enabled {
		return
	}
	if r.last == nil {
		r.last = new(T)
	}
	*r.last = value
}

// snapshot returns a copy of the remembered value, if any
func (r *replay[T]) snapshot() (T, bool) {
	var zero T
	if !r.enabled || r.last == nil {
		return zero, false
	}
	return *r.last, true
}
