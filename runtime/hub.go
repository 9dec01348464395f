package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultMessagePageSize = 50

var userNamePattern = regexp.MustCompile(`^[A-Za-z\s]{4,24}$`)

type HubOptions struct {
	// MessagePageSize is the number of stored messages used to seed an empty feed.
	MessagePageSize int
	// ValidateUserName rejects names outside [A-Za-z\s]{4,24} with InvalidUserName.
	ValidateUserName bool
	// Censor masks forbidden words of accepted bodies. Nil disables moderation.
	Censor contract.ICensor
}

type HubState int

const (
	HubEmpty HubState = iota
	HubActive
)

func (s HubState) String() string {
	if s == HubActive {
		return "active"
	}
	return "empty"
}

// Hub is the live actor of one room. It owns the room membership and feed.
// Mutations only happen through Process, which the room registry calls from
// its single dispatch loop. The lock lets readers observe a consistent state.
type Hub struct {
	roomID  domain.RoomID
	options HubOptions
	bus     contract.IPublisher
	repos   repositories.Repositories
	log     *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	members map[uuid.UUID]domain.User
	feed    *domain.Feed
}

func NewHub(roomID domain.RoomID, options HubOptions, bus contract.IPublisher,
	repos repositories.Repositories, log *slog.Logger) *Hub {
	if options.MessagePageSize <= 0 {
		options.MessagePageSize = DefaultMessagePageSize
	}
	return &Hub{
		roomID:  roomID,
		options: options,
		bus:     bus,
		repos:   repos,
		log:     log.With("room", string(roomID)),
		now:     func() time.Time { return time.Now().UTC() },
		members: make(map[uuid.UUID]domain.User),
		feed:    domain.NewFeed(),
	}
}

// Process handles one command addressed to the room.
// Commands the hub does not own are a programming error and panic.
func (h *Hub) Process(envelope domain.CommandEnvelope) {
	switch cmd := envelope.Command.(type) {
	case domain.Ping:
		h.publish(event.OnlyClient{ClientID: envelope.ClientID}, event.Pong{})
	case domain.LoadRoom:
		h.loadRoom()
	case domain.JoinRoom:
		h.join(clientOf(cmd.ClientID, envelope.ClientID), cmd.Name)
	case domain.PostMessage:
		h.post(clientOf(cmd.ClientID, envelope.ClientID), cmd.Body)
	case domain.Disconnect:
		h.OnDisconnect(envelope.ClientID)
	default:
		panic(fmt.Errorf("%w: %q in hub %s", errors.ErrUnsupportedCommand, envelope.Command.Type(), h.roomID))
	}
}

func clientOf(fromCommand, fromEnvelope uuid.UUID) uuid.UUID {
	if fromCommand != uuid.Nil {
		return fromCommand
	}
	return fromEnvelope
}

// loadRoom seeds an empty feed and an empty membership from storage,
// then sends the room state to every connection of the room.
func (h *Hub) loadRoom() {
	h.mu.Lock()
	if h.feed.IsEmpty() {
		messages, err := h.repos.Messages.LoadMessagesByRoom(h.roomID, 1, h.options.MessagePageSize)
		if err != nil {
			h.log.Warn("Unable to load recent messages", "error", err)
		}
		for _, m := range messages {
			h.feed.Add(m)
		}
	}

	hostMissing := false
	if len(h.members) == 0 {
		host, err := h.repos.Users.LoadHostOfRoom(h.roomID)
		if err != nil {
			h.log.Warn("Unable to load room host", "error", err)
			hostMissing = true
		} else {
			h.members[host.ID] = host
		}
		participants, err := h.repos.Users.LoadParticipantsOfRoom(h.roomID)
		if err != nil {
			h.log.Warn("Unable to load room participants", "error", err)
		}
		for _, p := range participants {
			h.members[p.ID] = p
		}
	}
	users := h.usersLocked()
	messages := h.feed.Snapshot()
	h.mu.Unlock()

	if hostMissing {
		h.publish(event.ToRoom{}, event.Error{Kind: event.HostUserNotExists})
	}
	h.publish(event.ToRoom{}, event.RoomLoaded{Users: users, RecentMessages: messages})
}

func (h *Hub) join(clientID uuid.UUID, name string) {
	name = strings.TrimSpace(name)

	h.mu.Lock()
	taken := lo.SomeBy(lo.Values(h.members), func(u domain.User) bool { return u.Name == name })
	if taken {
		h.mu.Unlock()
		h.publish(event.OnlyClient{ClientID: clientID}, event.Error{Kind: event.UserNameTaken})
		return
	}
	if h.options.ValidateUserName && !userNamePattern.MatchString(name) {
		h.mu.Unlock()
		h.publish(event.OnlyClient{ClientID: clientID}, event.Error{Kind: event.InvalidUserName})
		return
	}
	user := domain.NewUser(clientID, name)
	h.members[clientID] = user
	others := lo.Filter(h.usersLocked(), func(u domain.User, _ int) bool { return u.ID != clientID })
	messages := h.feed.Snapshot()
	h.mu.Unlock()

	h.publish(event.OnlyClient{ClientID: clientID}, event.Joined{Self: user, Others: others, Messages: messages})
	h.publish(event.AllExcept{ClientID: clientID}, event.UserJoined{RoomID: h.roomID, User: user})

	if _, err := h.repos.Users.CreateUser(user); err != nil {
		h.log.Warn("User not persisted", "user", user.ID, "error", err)
	}
}

func (h *Hub) post(clientID uuid.UUID, body string) {
	h.mu.RLock()
	author, joined := h.members[clientID]
	h.mu.RUnlock()

	if !joined {
		h.publish(event.OnlyClient{ClientID: clientID}, event.Error{Kind: event.UserNotJoined})
		return
	}
	if body == "" || utf8.RuneCountInString(body) > domain.MaxMessageBodyLength {
		h.publish(event.OnlyClient{ClientID: clientID}, event.Error{Kind: event.InvalidMessageBody})
		return
	}

	if h.options.Censor != nil {
		if censored, words := h.options.Censor.Censor(body); len(words) > 0 {
			h.log.Info("Message censored", "client", clientID, "words", len(words), "lang", moderation.Language(body))
			body = censored
		}
	}

	message := domain.NewMessage(author, body, h.now())
	h.mu.Lock()
	h.feed.Add(message)
	h.mu.Unlock()

	h.publish(event.OnlyClient{ClientID: clientID}, event.Posted{Message: message})
	h.publish(event.AllExcept{ClientID: clientID}, event.UserPosted{Message: message})

	if _, err := h.repos.Messages.AddMessage(h.roomID, message); err != nil {
		h.log.Warn("Message not persisted", "message", message.ID, "error", err)
	}
}

// OnDisconnect drops the client from the membership. Unknown clients are ignored.
func (h *Hub) OnDisconnect(clientID uuid.UUID) {
	h.mu.Lock()
	_, removed := h.members[clientID]
	delete(h.members, clientID)
	h.mu.Unlock()

	if removed {
		h.publish(event.AllExcept{ClientID: clientID}, event.UserLeft{RoomID: h.roomID, UserID: clientID})
	}
}

// Members returns the current members ordered by name.
func (h *Hub) Members() []domain.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.usersLocked()
}

func (h *Hub) IsMember(clientID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.members[clientID]
	return ok
}

// Messages returns the feed oldest first.
func (h *Hub) Messages() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.feed.Snapshot()
}

func (h *Hub) State() HubState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.members) == 0 {
		return HubEmpty
	}
	return HubActive
}

func (h *Hub) usersLocked() []domain.User {
	users := lo.Values(h.members)
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return users
}

// publish skips the bus entirely when nobody listens.
func (h *Hub) publish(to event.Addressing, evt event.Event) {
	if h.bus.ReceiverCount() == 0 {
		return
	}
	h.bus.Publish(event.Envelope{RoomID: h.roomID, To: to, Event: evt})
}
