package containers

import "errors"

var ErrQueueEmpty = errors.New("queue is empty")

// RingQueue is a FIFO backed by a circular buffer. When full, it doubles its
// capacity instead of rejecting the element. Not safe for concurrent use; the
// owner guards it with its own lock.
type RingQueue[T any] struct {
	data       []T
	readIndex  int
	writeIndex int
	count      int
}

// Create a new RingQueue with the given initial capacity.
func NewRingQueue[T any](size int) *RingQueue[T] {
	if size < 1 {
		size = 1
	}
	return &RingQueue[T]{
		data: make([]T, size),
	}
}

// Enqueue adds an element to the back of the queue.
func (rq *RingQueue[T]) Enqueue(value T) {
	if rq.count == len(rq.data) {
		rq.grow()
	}
	rq.data[rq.writeIndex] = value
	rq.writeIndex = (rq.writeIndex + 1) % len(rq.data)
	rq.count++
}

// Dequeue removes and returns the front element in the queue.
func (rq *RingQueue[T]) Dequeue() (T, error) {
	var zero T
	if rq.IsEmpty() {
		return zero, ErrQueueEmpty
	}
	value := rq.data[rq.readIndex]
	rq.data[rq.readIndex] = zero
	rq.readIndex = (rq.readIndex + 1) % len(rq.data)
	rq.count--
	return value, nil
}

// Peek returns the front element without removing it.
func (rq *RingQueue[T]) Peek() (T, error) {
	if rq.IsEmpty() {
		var zero T
		return zero, ErrQueueEmpty
	}
	return rq.data[rq.readIndex], nil
}

// Filter drops every queued element for which keep returns false, preserving
// the order of the rest. Returns the number of dropped elements.
func (rq *RingQueue[T]) Filter(keep func(T) bool) int {
	kept := make([]T, 0, len(rq.data))
	dropped := 0
	for rq.count > 0 {
		v, _ := rq.Dequeue()
		if keep(v) {
			kept = append(kept, v)
		} else {
			dropped++
		}
	}
	rq.readIndex, rq.writeIndex = 0, 0
	for _, v := range kept {
		rq.Enqueue(v)
	}
	return dropped
}

// Drain empties the queue and returns its elements in FIFO order.
func (rq *RingQueue[T]) Drain() []T {
	out := make([]T, 0, rq.count)
	for rq.count > 0 {
		v, _ := rq.Dequeue()
		out = append(out, v)
	}
	rq.readIndex, rq.writeIndex = 0, 0
	return out
}

func (rq *RingQueue[T]) Len() int {
	return rq.count
}

// IsEmpty checks if the queue is empty
func (rq *RingQueue[T]) IsEmpty() bool {
	return rq.count == 0
}

func (rq *RingQueue[T]) grow() {
	next := make([]T, len(rq.data)*2)
	for i := 0; i < rq.count; i++ {
		next[i] = rq.data[(rq.readIndex+i)%len(rq.data)]
	}
	rq.data = next
	rq.readIndex = 0
	rq.writeIndex = rq.count
}
