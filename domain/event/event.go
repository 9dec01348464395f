// Package event defines everything the server sends back to clients:
// the closed set of events, the error kinds and how an event is addressed.
package event

import (
	"chat-hub/domain"

	"github.com/google/uuid"
)

// Event is the closed set of server to client notifications.
type Event interface {
	// Type is the protocol tag of the event.
	Type() string
	isEvent()
}

type Pong struct{}

type Error struct {
	Kind ErrorKind
}

type RoomLoaded struct {
	Users          []domain.User
	RecentMessages []domain.Message
}

type RoomCreated struct {
	RoomID domain.RoomID
}

type RoomRemoved struct {
	RoomID domain.RoomID
}

type Joined struct {
	Self     domain.User
	Others   []domain.User
	Messages []domain.Message
}

type UserJoined struct {
	RoomID domain.RoomID
	User   domain.User
}

type UserLeft struct {
	RoomID domain.RoomID
	UserID uuid.UUID
}

type Posted struct {
	Message domain.Message
}

type UserPosted struct {
	Message domain.Message
}

// RoomsLoaded answers a user level LoadRooms query.
type RoomsLoaded struct {
	Rooms []domain.RoomMembership
}

// Lagged tells a connection it missed events and should load the room again.
// It is written by the transport itself and never travels on the bus.
type Lagged struct {
	Skipped uint64
}

func (Pong) Type() string        { return "pong" }
func (Error) Type() string       { return "error" }
func (RoomLoaded) Type() string  { return "room-loaded" }
func (RoomCreated) Type() string { return "room-created" }
func (RoomRemoved) Type() string { return "room-removed" }
func (Joined) Type() string      { return "joined" }
func (UserJoined) Type() string  { return "user-joined" }
func (UserLeft) Type() string    { return "user-left" }
func (Posted) Type() string      { return "posted" }
func (UserPosted) Type() string  { return "user-posted" }
func (RoomsLoaded) Type() string { return "rooms-loaded" }
func (Lagged) Type() string      { return "lagged" }

func (Pong) isEvent()        {}
func (Error) isEvent()       {}
func (RoomLoaded) isEvent()  {}
func (RoomCreated) isEvent() {}
func (RoomRemoved) isEvent() {}
func (Joined) isEvent()      {}
func (UserJoined) isEvent()  {}
func (UserLeft) isEvent()    {}
func (Posted) isEvent()      {}
func (UserPosted) isEvent()  {}
func (RoomsLoaded) isEvent() {}
func (Lagged) isEvent()      {}
