package frame

import "sync/atomic"

// DefaultRingSize is the default number of message slots.
const DefaultRingSize = 5

// Ring is the bounded queue between the receive goroutine (single producer)
// and the main loop (single consumer). When full, Publish drops the oldest
// unread message and counts it.
type Ring struct {
	ch      chan Message
	dropped uint64
}

// NewRing creates a Ring with size slots.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{ch: make(chan Message, size)}
}

// Publish enqueues msg, dropping the oldest message when the ring is full.
// It never blocks.
func (r *Ring) Publish(msg Message) {
	for {
		select {
		case r.ch <- msg:
			return
		default:
		}
		select {
		case <-r.ch:
			atomic.AddUint64(&r.dropped, 1)
		default:
			// consumer took one in the meantime
		}
	}
}

// Pop dequeues the oldest message without blocking.
func (r *Ring) Pop() (msg Message, ok bool) {
	select {
	case msg = <-r.ch:
		return msg, true
	default:
		return msg, false
	}
}

// Ready is received from when a message is pending.
func (r *Ring) Ready() <-chan Message {
	return r.ch
}

// Pending returns the number of unread messages.
func (r *Ring) Pending() int {
	return len(r.ch)
}

// Cap returns the number of slots.
func (r *Ring) Cap() int {
	return cap(r.ch)
}

// Dropped returns the number of messages overwritten before being read.
func (r *Ring) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}
