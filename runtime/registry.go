package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultCommandBufferSize = 1024
	roomIDRule               = "required,max=64,printascii,excludesall=/:"
	roomTitleRule            = "max=128"
	deleteKeyRule            = "required,max=128"
)

var (
	_ contract.Worker        = (*RoomRegistry)(nil)
	_ contract.ICommandQueue = (*RoomRegistry)(nil)
)

// RoomRegistry owns the rooms and their hubs and is the single consumer of the
// command queue. Every envelope is fully dispatched before the next one is
// pulled, which gives one total order for all mutations across all rooms.
// The rooms and hubs maps are only touched from Dispatch, so they need no lock.
//
// This trades room level parallelism for simplicity: one slow repository call
// delays every room. It is the scalability ceiling of the server.
type RoomRegistry struct {
	log      *slog.Logger
	bus      contract.IPublisher
	repos    repositories.Repositories
	options  HubOptions
	validate *validator.Validate
	commands chan domain.CommandEnvelope
	rooms    map[domain.RoomID]domain.Room
	hubs     map[domain.RoomID]*Hub
	now      func() time.Time
}

func NewRoomRegistry(log *slog.Logger, bus contract.IPublisher, repos repositories.Repositories,
	options HubOptions, bufferSize int) *RoomRegistry {
	if bufferSize <= 0 {
		bufferSize = DefaultCommandBufferSize
	}
	return &RoomRegistry{
		log:      log,
		bus:      bus,
		repos:    repos,
		options:  options,
		validate: validator.New(),
		commands: make(chan domain.CommandEnvelope, bufferSize),
		rooms:    make(map[domain.RoomID]domain.Room),
		hubs:     make(map[domain.RoomID]*Hub),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit enqueues an envelope, waiting for room in the queue if it is full.
func (r *RoomRegistry) Submit(ctx context.Context, envelope domain.CommandEnvelope) error {
	select {
	case r.commands <- envelope:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queue exposes the command channel for capacity sampling.
func (r *RoomRegistry) Queue() <-chan domain.CommandEnvelope {
	return r.commands
}

// Run consumes the command queue until ctx is canceled.
// An in-flight dispatch always completes before Run returns.
func (r *RoomRegistry) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping room registry")
			return ctx.Err()
		case envelope := <-r.commands:
			r.Dispatch(envelope)
		}
	}
}

// Dispatch handles one envelope. Room lifecycle commands are handled here,
// everything else goes to the hub of the addressed room.
func (r *RoomRegistry) Dispatch(envelope domain.CommandEnvelope) {
	switch cmd := envelope.Command.(type) {
	case domain.Ping:
		r.publish(event.Targeted(envelope.RoomID, envelope.ClientID, event.Pong{}))
	case domain.LoadRoom:
		r.loadRoom(envelope)
	case domain.CreateRoom:
		r.createRoom(envelope.ClientID, envelope.RoomID, cmd)
	case domain.DeleteRoom:
		roomID := cmd.RoomID
		if roomID == "" {
			roomID = envelope.RoomID
		}
		r.deleteRoom(envelope.ClientID, roomID, cmd.DeleteKey)
	case domain.Disconnect:
		// Nothing to leave when the room has no live hub
		if hub, ok := r.hubs[envelope.RoomID]; ok {
			hub.Process(envelope)
		}
	default:
		hub, ok := r.hubFor(envelope.RoomID)
		if !ok {
			r.sendError(envelope.RoomID, envelope.ClientID, event.RoomNotExists)
			return
		}
		hub.Process(envelope)
	}
}

func (r *RoomRegistry) createRoom(clientID uuid.UUID, roomID domain.RoomID, cmd domain.CreateRoom) {
	if err := r.validate.Var(string(roomID), roomIDRule); err != nil {
		r.sendError(roomID, clientID, event.InvalidRoomName)
		return
	}
	if err := r.validate.Var(cmd.Title, roomTitleRule); err != nil {
		r.sendError(roomID, clientID, event.InvalidRoomName)
		return
	}
	if cmd.HostID == uuid.Nil {
		r.sendError(roomID, clientID, event.InvalidUserName)
		return
	}
	// An empty key would let anybody remove the room
	if err := r.validate.Var(cmd.DeleteKey, deleteKeyRule); err != nil {
		r.sendError(roomID, clientID, event.InvalidDeleteKey)
		return
	}
	if r.roomTaken(roomID) {
		r.sendError(roomID, clientID, event.RoomNameTaken)
		return
	}

	scope := cmd.Scope
	if scope == "" {
		scope = domain.DefaultScope
	}
	room := domain.Room{
		ID:           roomID,
		Title:        cmd.Title,
		Host:         domain.NewUser(cmd.HostID, cmd.HostName),
		Participants: cmd.Participants,
		CreatedAt:    r.now(),
		Scope:        scope,
		DeleteKey:    cmd.DeleteKey,
	}
	r.rooms[roomID] = room

	// The creator and the invitees join through the regular join path
	hub := NewHub(roomID, r.options, r.bus, r.repos, r.log)
	for _, member := range room.Members() {
		hub.Process(domain.NewCommandEnvelope(member.ID, roomID,
			domain.JoinRoom{ClientID: member.ID, Name: member.Name}))
	}
	r.hubs[roomID] = hub

	if _, err := r.repos.Rooms.CreateRoom(room); err != nil {
		r.log.Warn("Room not persisted", "room", roomID, "error", err)
	}
	joined := lo.Filter(room.Members(), func(u domain.User, _ int) bool { return hub.IsMember(u.ID) })
	for _, member := range joined {
		entry := domain.RoomMembership{RoomID: roomID, UserID: member.ID, RoomTitle: room.Title, CreatedAt: room.CreatedAt}
		if _, err := r.repos.Memberships.CreateMembership(entry); err != nil {
			r.log.Warn("Membership not persisted", "room", roomID, "user", member.ID, "error", err)
		}
	}

	r.log.Info("Room created", "room", roomID, "members", len(joined))
	r.publish(event.Broadcast(roomID, event.RoomCreated{RoomID: roomID}))
}

// roomTaken also looks into storage so a persisted room that is not cached
// cannot be overwritten.
func (r *RoomRegistry) roomTaken(roomID domain.RoomID) bool {
	if _, ok := r.rooms[roomID]; ok {
		return true
	}
	exists, err := r.repos.Rooms.RoomExists(roomID)
	if err != nil {
		r.log.Warn("Unable to check room existence", "room", roomID, "error", err)
		return false
	}
	return exists
}

// deleteRoom stops at the first failed check. A wrong key leaves the room untouched.
func (r *RoomRegistry) deleteRoom(clientID uuid.UUID, roomID domain.RoomID, deleteKey string) {
	room, ok := r.rooms[roomID]
	if !ok {
		loaded, err := r.repos.Rooms.LoadOneRoom(roomID)
		if err != nil {
			if !stderrors.Is(err, errors.ErrNotFound) {
				r.log.Warn("Unable to load room", "room", roomID, "error", err)
			}
			r.sendError(roomID, clientID, event.RoomNotExists)
			return
		}
		room = loaded
	}

	if !room.CanDelete(deleteKey) {
		r.sendError(roomID, clientID, event.RemoveRoomFailed)
		return
	}

	delete(r.rooms, roomID)
	delete(r.hubs, roomID)
	r.publish(event.Broadcast(roomID, event.RoomRemoved{RoomID: roomID}))

	if err := r.repos.Rooms.DeleteRoom(roomID); err != nil {
		r.log.Warn("Room not deleted from storage", "room", roomID, "error", err)
	}
	if err := r.repos.Memberships.DeleteByRoom(roomID); err != nil {
		r.log.Warn("Memberships not deleted from storage", "room", roomID, "error", err)
	}
	if err := r.repos.Messages.DeleteByRoom(roomID); err != nil {
		r.log.Warn("Messages not deleted from storage", "room", roomID, "error", err)
	}
	r.log.Info("Room removed", "room", roomID)
}

func (r *RoomRegistry) loadRoom(envelope domain.CommandEnvelope) {
	hub, ok := r.hubFor(envelope.RoomID)
	if !ok {
		r.sendError(envelope.RoomID, envelope.ClientID, event.RoomNotExists)
		return
	}
	hub.Process(envelope)
}

// hubFor returns the live hub of the room, bringing the room and its hub to
// life from storage when the room exists but is not cached yet.
func (r *RoomRegistry) hubFor(roomID domain.RoomID) (*Hub, bool) {
	if hub, ok := r.hubs[roomID]; ok {
		return hub, true
	}
	if _, cached := r.rooms[roomID]; !cached {
		exists, err := r.repos.Rooms.RoomExists(roomID)
		if err != nil {
			r.log.Warn("Unable to check room existence", "room", roomID, "error", err)
		}
		if !exists {
			return nil, false
		}
		room, err := r.repos.Rooms.LoadOneRoom(roomID)
		if err != nil {
			r.log.Warn("Unable to load room", "room", roomID, "error", err)
			return nil, false
		}
		r.rooms[roomID] = room
	}
	hub := NewHub(roomID, r.options, r.bus, r.repos, r.log)
	r.hubs[roomID] = hub
	return hub, true
}

// Room returns the cached room. Only safe to call from the dispatch goroutine or tests.
func (r *RoomRegistry) Room(roomID domain.RoomID) (domain.Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Hub returns the live hub of the room. Only safe to call from the dispatch goroutine or tests.
func (r *RoomRegistry) Hub(roomID domain.RoomID) (*Hub, bool) {
	hub, ok := r.hubs[roomID]
	return hub, ok
}

func (r *RoomRegistry) sendError(roomID domain.RoomID, clientID uuid.UUID, kind event.ErrorKind) {
	r.log.Debug("Command rejected", "room", roomID, "client", clientID, "kind", kind.Code())
	r.publish(event.Targeted(roomID, clientID, event.Error{Kind: kind}))
}

func (r *RoomRegistry) publish(envelope event.Envelope) {
	if r.bus.ReceiverCount() == 0 {
		return
	}
	r.bus.Publish(envelope)
}
