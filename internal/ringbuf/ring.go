// Package ringbuf provides a fixed-capacity sliding window used for the
// chart history and the sync log list.
package ringbuf

// Ring keeps the last Cap() values pushed into it. It is not safe for
// concurrent use; callers guard it with their own lock.
type Ring[T any] struct {
	buf   []T
	start int // index of the oldest element
	n     int
}

// New returns an empty ring. Capacities below 1 are raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when the ring is full.
// It reports whether an eviction happened.
func (r *Ring[T]) Push(v T) bool {
	c := len(r.buf)
	if r.n < c {
		r.buf[(r.start+r.n)%c] = v
		r.n++
		return false
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % c
	return true
}

// Len is the number of stored values.
func (r *Ring[T]) Len() int { return r.n }

// Cap is the maximum number of stored values.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Items returns a copy ordered oldest to newest.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Newest returns a copy ordered newest to oldest.
func (r *Ring[T]) Newest() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+r.n-1-i)%len(r.buf)]
	}
	return out
}

// Reset drops every value and keeps the capacity.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.n = 0, 0
}
