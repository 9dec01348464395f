package runtime

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"sync"

	"github.com/google/uuid"
)

// recorder is a publisher keeping every envelope in publish order.
type recorder struct {
	mu        sync.Mutex
	envelopes []event.Envelope
}

func (r *recorder) Publish(envelope event.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, envelope)
}

func (r *recorder) ReceiverCount() int { return 1 }

// to returns the events a connection of roomID acting as clientID would receive.
func (r *recorder) to(roomID domain.RoomID, clientID uuid.UUID) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []event.Event
	for _, e := range r.envelopes {
		if e.DeliversTo(roomID, clientID) {
			events = append(events, e.Event)
		}
	}
	return events
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = nil
}

func ofType[T event.Event](events []event.Event) []T {
	var typed []T
	for _, e := range events {
		if t, ok := e.(T); ok {
			typed = append(typed, t)
		}
	}
	return typed
}

func errorKinds(events []event.Event) []event.ErrorKind {
	var kinds []event.ErrorKind
	for _, e := range ofType[event.Error](events) {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
