package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const DefaultRoomsPageSize = 10

var (
	_ contract.Worker        = (*UserRegistry)(nil)
	_ contract.ICommandQueue = (*UserRegistry)(nil)
)

// UserRegistry answers user level queries. Its events carry no room id and
// are addressed to the asking user only.
type UserRegistry struct {
	log         *slog.Logger
	bus         contract.IPublisher
	memberships repositories.IRoomMembershipRepository
	pageSize    int
	commands    chan domain.CommandEnvelope
}

func NewUserRegistry(log *slog.Logger, bus contract.IPublisher,
	memberships repositories.IRoomMembershipRepository, pageSize, bufferSize int) *UserRegistry {
	if pageSize <= 0 {
		pageSize = DefaultRoomsPageSize
	}
	if bufferSize <= 0 {
		bufferSize = DefaultCommandBufferSize
	}
	return &UserRegistry{
		log:         log,
		bus:         bus,
		memberships: memberships,
		pageSize:    pageSize,
		commands:    make(chan domain.CommandEnvelope, bufferSize),
	}
}

func (u *UserRegistry) Submit(ctx context.Context, envelope domain.CommandEnvelope) error {
	select {
	case u.commands <- envelope:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *UserRegistry) Queue() <-chan domain.CommandEnvelope {
	return u.commands
}

func (u *UserRegistry) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			u.log.Debug("Stopping user registry")
			return ctx.Err()
		case envelope := <-u.commands:
			u.Dispatch(envelope)
		}
	}
}

// Dispatch only knows Ping and LoadRooms; anything else panics.
func (u *UserRegistry) Dispatch(envelope domain.CommandEnvelope) {
	switch cmd := envelope.Command.(type) {
	case domain.Ping:
		u.send(envelope.ClientID, event.Pong{})
	case domain.LoadRooms:
		userID := cmd.UserID
		if userID == uuid.Nil {
			userID = envelope.ClientID
		}
		u.loadRooms(userID)
	default:
		panic(fmt.Errorf("%w: %q in user registry", errors.ErrUnsupportedCommand, envelope.Command.Type()))
	}
}

func (u *UserRegistry) loadRooms(userID uuid.UUID) {
	rooms, err := u.memberships.LoadByUser(userID, 1, u.pageSize)
	if err != nil {
		u.log.Warn("Unable to load rooms of user", "user", userID, "error", err)
		rooms = nil
	}
	u.send(userID, event.RoomsLoaded{Rooms: rooms})
}

func (u *UserRegistry) send(userID uuid.UUID, evt event.Event) {
	if u.bus.ReceiverCount() == 0 {
		return
	}
	u.bus.Publish(event.Targeted("", userID, evt))
}
