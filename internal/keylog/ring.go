// File: internal/keylog/ring.go
package keylog

// Ring is a fixed-capacity circular buffer. Once full, each append
// overwrites the oldest element; there is no backpressure and no overflow
// error. Not safe for concurrent use; callers synchronize.
type Ring[T any] struct {
	buf   []T
	head  int // next insert position
	count int
}

// NewRing creates a ring buffer with the given capacity. Capacity below one
// is treated as one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Append inserts v, overwriting the oldest element when full.
func (r *Ring[T]) Append(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Len reports the number of retained elements.
func (r *Ring[T]) Len() int { return r.count }

// Snapshot returns the retained elements from oldest to newest.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
