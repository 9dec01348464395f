package api

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/repositories"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	rooms       *mocks.MockIRoomRepository
	messages    *mocks.MockIMessageRepository
	memberships *mocks.MockIRoomMembershipRepository
	router      http.Handler
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		rooms:       mocks.NewMockIRoomRepository(ctrl),
		messages:    mocks.NewMockIMessageRepository(ctrl),
		memberships: mocks.NewMockIRoomMembershipRepository(ctrl),
	}
	repos := repositories.Repositories{
		Rooms:       f.rooms,
		Users:       mocks.NewMockIUserRepository(ctrl),
		Messages:    f.messages,
		Memberships: f.memberships,
	}
	router := chi.NewRouter()
	NewAPI(logs.GetLoggerFromLevel(slog.LevelDebug), repos).Routes(router)
	f.router = router
	return f
}

func (f fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAPI_GetRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	host := domain.NewUser(uuid.New(), "Alice")

	// Given a stored room
	f.rooms.EXPECT().LoadOneRoom(domain.RoomID("r1")).Return(domain.Room{
		ID: "r1", Title: "general", Host: host, Scope: domain.DefaultScope,
		CreatedAt: time.Now().UTC(), DeleteKey: "secret",
	}, nil)

	// When it is fetched
	rec := f.get("/v1/rooms/r1")

	// Then its view is returned without the delete key
	req.Equal(http.StatusOK, rec.Code)
	req.NotContains(rec.Body.String(), "secret")
	var view RoomView
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	req.Equal("r1", view.ID)
	req.Equal(host.ID, view.Host.ID)
	req.Equal("public", view.Scope)
}

func TestAPI_GetRoom_NotFound(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.rooms.EXPECT().LoadOneRoom(domain.RoomID("nope")).
		Return(domain.Room{}, fmt.Errorf("room nope: %w", errors.ErrNotFound))

	rec := f.get("/v1/rooms/nope")

	req.Equal(http.StatusNotFound, rec.Code)
	req.Contains(rec.Body.String(), "room not found")
}

func TestAPI_GetMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	author := domain.NewUser(uuid.New(), "Bob")

	// Given a room with one message
	f.rooms.EXPECT().RoomExists(domain.RoomID("r1")).Return(true, nil)
	f.messages.EXPECT().LoadMessagesByRoom(domain.RoomID("r1"), 2, 10).
		Return([]domain.Message{domain.NewMessage(author, "hi", time.Now().UTC())}, nil)

	// When the second page of ten is requested
	rec := f.get("/v1/rooms/r1/messages?page=2&size=10")

	// Then the page is returned
	req.Equal(http.StatusOK, rec.Code)
	var list MessageList
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	req.Len(list.Messages, 1)
	req.Equal("hi", list.Messages[0].Body)
	req.Equal("Bob", list.Messages[0].Author.Name)
}

func TestAPI_GetMessages_InvalidPage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	rec := f.get("/v1/rooms/r1/messages?page=0")

	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_GetMessages_UnknownRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.rooms.EXPECT().RoomExists(domain.RoomID("r9")).Return(false, nil)

	rec := f.get("/v1/rooms/r9/messages")

	req.Equal(http.StatusNotFound, rec.Code)
}

func TestAPI_GetUserRooms(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	userID := uuid.New()

	f.memberships.EXPECT().LoadByUser(userID, 1, defaultPageSize).Return([]domain.RoomMembership{
		{RoomID: "r1", UserID: userID, RoomTitle: "general"},
		{RoomID: "r2", UserID: userID, RoomTitle: "random"},
	}, nil)

	rec := f.get("/v1/users/" + userID.String() + "/rooms")

	req.Equal(http.StatusOK, rec.Code)
	var list MembershipList
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	req.Len(list.Rooms, 2)
	req.Equal("random", list.Rooms[1].Title)
}

func TestAPI_GetUserRooms_InvalidUser(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	rec := f.get("/v1/users/not-a-uuid/rooms")

	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_UnexpectedError(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.rooms.EXPECT().LoadOneRoom(domain.RoomID("r1")).Return(domain.Room{}, fmt.Errorf("disk on fire"))

	rec := f.get("/v1/rooms/r1")

	req.Equal(http.StatusInternalServerError, rec.Code)
}
