package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBusCapacity is the number of envelopes retained for subscribers.
const DefaultBusCapacity = 65536

var _ contract.IPublisher = (*OutputBus)(nil)

// OutputBus is a bounded broadcast shared by every connection of every room.
// Each subscriber reads the whole stream at its own pace and filters what it needs.
//
// Publish never blocks. When a subscriber falls more than the capacity behind,
// its next Recv returns a *errors.LaggedError and the subscription jumps to the
// oldest envelope still retained. Lagging is a recoverable desync: a room client
// resynchronises by issuing LoadRoom again.
type OutputBus struct {
	mu        sync.RWMutex
	ring      []event.Envelope
	head      uint64 // sequence number of the next envelope
	notify    chan struct{}
	closed    bool
	receivers atomic.Int64
}

func NewOutputBus(capacity int) *OutputBus {
	if capacity <= 0 {
		capacity = DefaultBusCapacity
	}
	return &OutputBus{
		ring:   make([]event.Envelope, capacity),
		notify: make(chan struct{}),
	}
}

// Publish appends the envelope, overwriting the oldest one when the ring is full.
func (b *OutputBus) Publish(envelope event.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ring[b.head%uint64(len(b.ring))] = envelope
	b.head++
	// Wake every waiting subscriber
	close(b.notify)
	b.notify = make(chan struct{})
}

func (b *OutputBus) ReceiverCount() int {
	return int(b.receivers.Load())
}

func (b *OutputBus) Capacity() int {
	return len(b.ring)
}

// Subscribe starts a subscription at the current end of the stream.
func (b *OutputBus) Subscribe() *Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.receivers.Add(1)
	return &Subscription{bus: b, next: b.head}
}

// Close wakes every subscriber. They drain what is retained, then get errors.ErrBusClosed.
func (b *OutputBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// Subscription is a single reader of the bus. It must not be shared between goroutines.
type Subscription struct {
	bus      *OutputBus
	next     uint64
	unsubbed atomic.Bool
}

// Recv blocks until the next envelope is available, the bus is closed or ctx is done.
func (s *Subscription) Recv(ctx context.Context) (event.Envelope, error) {
	for {
		s.bus.mu.RLock()
		head := s.bus.head
		capacity := uint64(len(s.bus.ring))
		if head-s.next > capacity {
			oldest := head - capacity
			skipped := oldest - s.next
			s.next = oldest
			s.bus.mu.RUnlock()
			return event.Envelope{}, &errors.LaggedError{Skipped: skipped}
		}
		if s.next < head {
			envelope := s.bus.ring[s.next%capacity]
			s.next++
			s.bus.mu.RUnlock()
			return envelope, nil
		}
		if s.bus.closed {
			s.bus.mu.RUnlock()
			return event.Envelope{}, errors.ErrBusClosed
		}
		wait := s.bus.notify
		s.bus.mu.RUnlock()

		select {
		case <-ctx.Done():
			return event.Envelope{}, ctx.Err()
		case <-wait:
		}
	}
}

// Unsubscribe releases the subscription. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s.unsubbed.CompareAndSwap(false, true) {
		s.bus.receivers.Add(-1)
	}
}
