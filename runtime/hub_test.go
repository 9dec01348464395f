package runtime

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/repositories"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const roomID = domain.RoomID("r1")

type hubFixture struct {
	hub      *Hub
	bus      *recorder
	users    *mocks.MockIUserRepository
	messages *mocks.MockIMessageRepository
}

func newHubFixture(t *testing.T, options HubOptions) hubFixture {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users.EXPECT().CreateUser(gomock.Any()).DoAndReturn(func(u domain.User) (domain.User, error) { return u, nil }).AnyTimes()
	messages.EXPECT().AddMessage(roomID, gomock.Any()).
		DoAndReturn(func(_ domain.RoomID, m domain.Message) (domain.Message, error) { return m, nil }).AnyTimes()

	bus := &recorder{}
	repos := repositories.Repositories{
		Rooms:       mocks.NewMockIRoomRepository(ctrl),
		Users:       users,
		Messages:    messages,
		Memberships: mocks.NewMockIRoomMembershipRepository(ctrl),
	}
	hub := NewHub(roomID, options, bus, repos, logs.GetLoggerFromLevel(slog.LevelDebug))
	return hubFixture{hub: hub, bus: bus, users: users, messages: messages}
}

func (f hubFixture) join(clientID uuid.UUID, name string) {
	f.hub.Process(domain.NewCommandEnvelope(clientID, roomID, domain.JoinRoom{ClientID: clientID, Name: name}))
}

func (f hubFixture) post(clientID uuid.UUID, body string) {
	f.hub.Process(domain.NewCommandEnvelope(clientID, roomID, domain.PostMessage{ClientID: clientID, Body: body}))
}

func TestHub_JoinWithDistinctNames(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	names := []string{"Alice", "Bob", "Clara", "Dave", "Eve"}

	// Given an empty room
	req.Equal(HubEmpty, f.hub.State())

	// When five users with distinct names join
	for _, name := range names {
		f.join(uuid.New(), name)
	}

	// Then they are all members with unique ids and names
	members := f.hub.Members()
	req.Len(members, len(names))
	ids := map[uuid.UUID]bool{}
	seen := map[string]bool{}
	for _, m := range members {
		ids[m.ID] = true
		seen[m.Name] = true
	}
	req.Len(ids, len(names))
	req.Len(seen, len(names))
	req.Equal(HubActive, f.hub.State())
}

func TestHub_JoinNotifiesSelfAndOthers(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	alice, bob := uuid.New(), uuid.New()
	f.join(alice, "Alice")
	f.post(alice, "first")
	f.bus.reset()

	// When Bob joins
	f.join(bob, "Bob")

	// Then Bob gets the room state
	joined := ofType[event.Joined](f.bus.to(roomID, bob))
	req.Len(joined, 1)
	req.Equal(domain.NewUser(bob, "Bob"), joined[0].Self)
	req.Equal([]domain.User{domain.NewUser(alice, "Alice")}, joined[0].Others)
	req.Len(joined[0].Messages, 1)
	req.Empty(ofType[event.UserJoined](f.bus.to(roomID, bob)))

	// And Alice is told about Bob
	userJoined := ofType[event.UserJoined](f.bus.to(roomID, alice))
	req.Len(userJoined, 1)
	req.Equal(bob, userJoined[0].User.ID)
	req.Equal(roomID, userJoined[0].RoomID)
}

func TestHub_JoinWithTakenName(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	alice, impostor := uuid.New(), uuid.New()
	f.join(alice, "Alice")
	before := f.hub.Members()

	// When someone else picks the same name, with surrounding spaces
	f.join(impostor, "  Alice ")

	// Then the join is refused and nothing changes
	req.Equal([]event.ErrorKind{event.UserNameTaken}, errorKinds(f.bus.to(roomID, impostor)))
	req.Equal(before, f.hub.Members())
	req.False(f.hub.IsMember(impostor))
}

func TestHub_UserNameValidation(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{ValidateUserName: true})
	bad, good := uuid.New(), uuid.New()

	f.join(bad, "R2D2")
	f.join(good, "Obi Wan")

	req.Equal([]event.ErrorKind{event.InvalidUserName}, errorKinds(f.bus.to(roomID, bad)))
	req.False(f.hub.IsMember(bad))
	req.True(f.hub.IsMember(good))
}

func TestHub_PostFromNonMember(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	stranger := uuid.New()

	f.post(stranger, "hello")

	req.Equal([]event.ErrorKind{event.UserNotJoined}, errorKinds(f.bus.to(roomID, stranger)))
	req.Empty(f.hub.Messages())
}

func TestHub_PostWithInvalidBody(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	alice := uuid.New()
	f.join(alice, "Alice")
	f.bus.reset()

	// When posting an empty body and a body of 257 characters
	f.post(alice, "")
	f.post(alice, strings.Repeat("é", domain.MaxMessageBodyLength+1))

	// Then both are refused and the feed stays empty
	req.Equal([]event.ErrorKind{event.InvalidMessageBody, event.InvalidMessageBody}, errorKinds(f.bus.to(roomID, alice)))
	req.Empty(f.hub.Messages())

	// While 256 characters, more than 256 bytes, are accepted
	f.post(alice, strings.Repeat("é", domain.MaxMessageBodyLength))
	req.Len(f.hub.Messages(), 1)
}

func TestHub_PostNotifiesAuthorAndOthers(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	alice, bob := uuid.New(), uuid.New()
	f.join(alice, "Alice")
	f.join(bob, "Bob")
	f.bus.reset()

	f.post(bob, "hi all")

	posted := ofType[event.Posted](f.bus.to(roomID, bob))
	req.Len(posted, 1)
	req.Equal("hi all", posted[0].Message.Body)
	req.Equal("Bob", posted[0].Message.Author.Name)
	req.Empty(ofType[event.UserPosted](f.bus.to(roomID, bob)))

	userPosted := ofType[event.UserPosted](f.bus.to(roomID, alice))
	req.Len(userPosted, 1)
	req.Equal(posted[0].Message, userPosted[0].Message)
	req.Empty(ofType[event.Posted](f.bus.to(roomID, alice)))
}

func TestHub_FailedPersistenceKeepsMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	users.EXPECT().CreateUser(gomock.Any()).Return(domain.User{}, fmt.Errorf("disk full"))
	messages.EXPECT().AddMessage(roomID, gomock.Any()).Return(domain.Message{}, fmt.Errorf("disk full"))
	bus := &recorder{}
	hub := NewHub(roomID, HubOptions{}, bus, repositories.Repositories{Users: users, Messages: messages}, slog.Default())
	alice := uuid.New()

	hub.Process(domain.NewCommandEnvelope(alice, roomID, domain.JoinRoom{ClientID: alice, Name: "Alice"}))
	hub.Process(domain.NewCommandEnvelope(alice, roomID, domain.PostMessage{ClientID: alice, Body: "still here"}))

	req.True(hub.IsMember(alice))
	req.Len(hub.Messages(), 1)
	req.Len(ofType[event.Posted](bus.to(roomID, alice)), 1)
}

func TestHub_Disconnect(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	alice, bob := uuid.New(), uuid.New()
	f.join(alice, "Alice")
	f.join(bob, "Bob")
	f.bus.reset()

	// When Bob goes away, twice
	f.hub.Process(domain.NewCommandEnvelope(bob, roomID, domain.Disconnect{}))
	f.hub.OnDisconnect(bob)

	// Then Alice is told once
	left := ofType[event.UserLeft](f.bus.to(roomID, alice))
	req.Len(left, 1)
	req.Equal(bob, left[0].UserID)
	req.False(f.hub.IsMember(bob))
	req.Len(f.hub.Members(), 1)
}

func TestHub_LoadRoomSeedsFromStorage(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{MessagePageSize: 20})
	host := domain.NewUser(uuid.New(), "Alice")
	guest := domain.NewUser(uuid.New(), "Bob")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := []domain.Message{
		domain.NewMessage(host, "one", at),
		domain.NewMessage(guest, "two", at.Add(time.Second)),
	}
	watcher := uuid.New()

	// Given a room known only to storage
	f.messages.EXPECT().LoadMessagesByRoom(roomID, 1, 20).Return(stored, nil)
	f.users.EXPECT().LoadHostOfRoom(roomID).Return(host, nil)
	f.users.EXPECT().LoadParticipantsOfRoom(roomID).Return([]domain.User{guest}, nil)

	// When it is loaded
	f.hub.Process(domain.NewCommandEnvelope(watcher, roomID, domain.LoadRoom{}))

	// Then every connection of the room gets the stored state
	loaded := ofType[event.RoomLoaded](f.bus.to(roomID, watcher))
	req.Len(loaded, 1)
	req.Equal([]domain.User{host, guest}, loaded[0].Users)
	req.Equal(stored, loaded[0].RecentMessages)

	// And a second load does not hit storage again
	f.hub.Process(domain.NewCommandEnvelope(watcher, roomID, domain.LoadRoom{}))
	req.Len(ofType[event.RoomLoaded](f.bus.to(roomID, watcher)), 2)
}

func TestHub_LoadRoomWithoutHost(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	watcher := uuid.New()

	f.messages.EXPECT().LoadMessagesByRoom(roomID, 1, DefaultMessagePageSize).Return(nil, nil)
	f.users.EXPECT().LoadHostOfRoom(roomID).Return(domain.User{}, errors.ErrNotFound)
	f.users.EXPECT().LoadParticipantsOfRoom(roomID).Return(nil, errors.ErrNotFound)

	f.hub.Process(domain.NewCommandEnvelope(watcher, roomID, domain.LoadRoom{}))

	events := f.bus.to(roomID, watcher)
	req.Equal([]event.ErrorKind{event.HostUserNotExists}, errorKinds(events))
	req.Len(ofType[event.RoomLoaded](events), 1)
}

func TestHub_Ping(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})
	client, other := uuid.New(), uuid.New()

	f.hub.Process(domain.NewCommandEnvelope(client, roomID, domain.Ping{}))

	req.Len(ofType[event.Pong](f.bus.to(roomID, client)), 1)
	req.Empty(f.bus.to(roomID, other))
}

func TestHub_UnsupportedCommandPanics(t *testing.T) {
	req := require.New(t)
	f := newHubFixture(t, HubOptions{})

	req.Panics(func() {
		f.hub.Process(domain.NewCommandEnvelope(uuid.New(), roomID, domain.LoadRooms{}))
	})
}

func TestHub_PostIsCensored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	censor := mocks.NewMockICensor(ctrl)
	f := newHubFixture(t, HubOptions{Censor: censor})
	alice, bob := uuid.New(), uuid.New()
	f.join(alice, "Alice")
	f.join(bob, "Bob")
	f.bus.reset()

	// Given a censor finding one word
	censor.EXPECT().Censor("you sn4ke").Return("you *****", []string{"snake"})

	// When Alice posts it
	f.post(alice, "you sn4ke")

	// Then everybody, and the feed, only see the masked body
	req.Equal("you *****", ofType[event.Posted](f.bus.to(roomID, alice))[0].Message.Body)
	req.Equal("you *****", ofType[event.UserPosted](f.bus.to(roomID, bob))[0].Message.Body)
	req.Equal("you *****", f.hub.Messages()[0].Body)
}

func TestHub_CensorIsNotAskedForRejectedBodies(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	censor := mocks.NewMockICensor(ctrl)
	f := newHubFixture(t, HubOptions{Censor: censor})
	alice := uuid.New()
	f.join(alice, "Alice")

	// Given a clean message and an empty one
	censor.EXPECT().Censor("clean").Return("clean", nil).Times(1)

	f.post(alice, "clean")
	f.post(alice, "")

	req.Len(f.hub.Messages(), 1)
	req.Equal("clean", f.hub.Messages()[0].Body)
}
