package util

// Ring keeps the last Cap() values pushed into it. It does no locking;
// owners guard it with their own mutex.
type Ring[T any] struct {
	items []T
	next  int
	full  bool
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push stores v, dropping the oldest value once the ring is full.
func (r *Ring[T]) Push(v T) {
	r.items[r.next] = v
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// Items returns a copy, oldest first.
func (r *Ring[T]) Items() []T {
	if !r.full {
		return append(make([]T, 0, r.next), r.items[:r.next]...)
	}
	out := make([]T, 0, len(r.items))
	out = append(out, r.items[r.next:]...)
	return append(out, r.items[:r.next]...)
}

func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.items)
	}
	return r.next
}

func (r *Ring[T]) Cap() int { return len(r.items) }
