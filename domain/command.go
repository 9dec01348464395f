package domain

import (
	"github.com/google/uuid"
)

// Command is the closed set of client requests.
type Command interface {
	// Type is the protocol tag of the command.
	Type() string
	isCommand()
}

type Ping struct{}

type LoadRoom struct{}

type CreateRoom struct {
	Title        string
	HostID       uuid.UUID
	HostName     string
	Participants []User
	DeleteKey    string
	Scope        string
}

type DeleteRoom struct {
	RoomID    RoomID
	DeleteKey string
}

type JoinRoom struct {
	ClientID uuid.UUID
	Name     string
}

type PostMessage struct {
	ClientID uuid.UUID
	Body     string
}

// LoadRooms is addressed to the user registry by user id.
type LoadRooms struct {
	UserID uuid.UUID
}

// Disconnect is raised by the transport when a client's connection closes.
// It is never decoded from the wire.
type Disconnect struct{}

func (Ping) Type() string        { return "ping" }
func (LoadRoom) Type() string    { return "load-room" }
func (CreateRoom) Type() string  { return "create-room" }
func (DeleteRoom) Type() string  { return "remove-room" }
func (JoinRoom) Type() string    { return "join-room" }
func (PostMessage) Type() string { return "post-message" }
func (LoadRooms) Type() string   { return "load-rooms" }
func (Disconnect) Type() string  { return "disconnect" }

func (Ping) isCommand()        {}
func (LoadRoom) isCommand()    {}
func (CreateRoom) isCommand()  {}
func (DeleteRoom) isCommand()  {}
func (JoinRoom) isCommand()    {}
func (PostMessage) isCommand() {}
func (LoadRooms) isCommand()   {}
func (Disconnect) isCommand()  {}

// CommandEnvelope is the unit of work pulled from the command queue.
type CommandEnvelope struct {
	ClientID uuid.UUID
	RoomID   RoomID
	Command  Command
}

func NewCommandEnvelope(clientID uuid.UUID, roomID RoomID, cmd Command) CommandEnvelope {
	return CommandEnvelope{ClientID: clientID, RoomID: roomID, Command: cmd}
}
