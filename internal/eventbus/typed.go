package eventbus

import "sync"

// DefaultBuffer is the channel capacity handed to each subscriber.
const DefaultBuffer = 8

// TypedBus is a type-safe publish/subscribe bus for events of type T.
// Slow subscribers lose events instead of blocking the publisher.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	closed  bool
	dropped uint64
}

// NewTyped creates a new TypedBus with DefaultBuffer sized subscriptions.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish sends the event to all subscribers and returns how many received
// it. Delivery is non-blocking.
func (b *TypedBus[T]) Publish(e T) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	delivered, missed := 0, 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			delivered++
		default:
			missed++
		}
	}
	b.mu.RUnlock()
	if missed > 0 {
		b.mu.Lock()
		b.dropped += uint64(missed)
		b.mu.Unlock()
	}
	return delivered
}

// Subscribe registers a subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, DefaultBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *TypedBus[T]) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
