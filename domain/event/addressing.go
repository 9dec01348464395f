package event

import (
	"chat-hub/domain"

	"github.com/google/uuid"
)

// Addressing tells which connections of a room an envelope is meant for.
type Addressing interface {
	Delivers(clientID uuid.UUID) bool
	isAddressing()
}

// ToRoom reaches every connection of the room.
type ToRoom struct{}

// AllExcept reaches every connection of the room but one.
type AllExcept struct {
	ClientID uuid.UUID
}

// OnlyClient reaches a single client.
type OnlyClient struct {
	ClientID uuid.UUID
}

func (ToRoom) Delivers(uuid.UUID) bool { return true }

func (a AllExcept) Delivers(clientID uuid.UUID) bool { return a.ClientID != clientID }

func (a OnlyClient) Delivers(clientID uuid.UUID) bool { return a.ClientID == clientID }

func (ToRoom) isAddressing()     {}
func (AllExcept) isAddressing()  {}
func (OnlyClient) isAddressing() {}

// Envelope is the unit published on the output bus.
// User level events carry an empty RoomID.
type Envelope struct {
	RoomID domain.RoomID
	To     Addressing
	Event  Event
}

// DeliversTo reports whether a connection on roomID identified by clientID should receive the envelope.
func (e Envelope) DeliversTo(roomID domain.RoomID, clientID uuid.UUID) bool {
	return e.RoomID == roomID && e.To != nil && e.To.Delivers(clientID)
}

func Broadcast(roomID domain.RoomID, evt Event) Envelope {
	return Envelope{RoomID: roomID, To: ToRoom{}, Event: evt}
}

func Targeted(roomID domain.RoomID, clientID uuid.UUID, evt Event) Envelope {
	return Envelope{RoomID: roomID, To: OnlyClient{ClientID: clientID}, Event: evt}
}

func Others(roomID domain.RoomID, clientID uuid.UUID, evt Event) Envelope {
	return Envelope{RoomID: roomID, To: AllExcept{ClientID: clientID}, Event: evt}
}
