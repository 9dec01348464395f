package e2e

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/api"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testRoomConversationSuite struct {
	BaseWsSuite
}

func TestRoomConversationSuite(t *testing.T) {
	suite.Run(t, &testRoomConversationSuite{})
}

func (s *testRoomConversationSuite) TestFullConversationFlow() {
	roomID := domain.RoomID("e2e-" + uuid.NewString()[:8])
	aliceID, bobID := uuid.New(), uuid.New()
	feeds := "/ws/" + string(roomID) + "/feeds"
	var alice, bob *Socket

	s.Step("Step 1: Alice creates the room", func() {
		alice = s.Dial("alice", feeds)
		alice.Send(domain.CreateRoom{Title: "e2e room", HostID: aliceID, HostName: "Alice", DeleteKey: "k"})
		joined := Expect[event.Joined](alice)
		s.Require().Equal(aliceID, joined.Self.ID)
		s.Require().Empty(joined.Others)
		s.Require().Equal(roomID, Expect[event.RoomCreated](alice).RoomID)
	})

	s.Step("Step 2: Alice talks alone", func() {
		alice.Send(domain.PostMessage{ClientID: aliceID, Body: "anyone?"})
		s.Require().Equal("anyone?", Expect[event.Posted](alice).Message.Body)
	})

	s.Step("Step 3: Bob joins and gets the history", func() {
		bob = s.Dial("bob", feeds)
		bob.Send(domain.JoinRoom{ClientID: bobID, Name: "Bob"})
		joined := Expect[event.Joined](bob)
		s.Require().Len(joined.Others, 1)
		s.Require().Len(joined.Messages, 1)
		s.Require().Equal(bobID, Expect[event.UserJoined](alice).User.ID)
	})

	s.Step("Step 4: Bob answers", func() {
		bob.Send(domain.PostMessage{ClientID: bobID, Body: "hello Alice"})
		s.Require().Equal("hello Alice", Expect[event.Posted](bob).Message.Body)
		s.Require().Equal("Bob", Expect[event.UserPosted](alice).Message.Author.Name)
	})

	s.Step("Step 5: The history is readable over REST", func() {
		var list api.MessageList
		status := s.GetJSON("/v1/rooms/"+string(roomID)+"/messages", &list)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Len(list.Messages, 2)
		s.Require().Equal("anyone?", list.Messages[0].Body)
	})

	s.Step("Step 6: Alice sees her room on her user socket", func() {
		user := s.Dial("alice-user", "/ws/users/"+aliceID.String())
		user.Send(domain.LoadRooms{})
		rooms := Expect[event.RoomsLoaded](user).Rooms
		s.Require().Len(rooms, 1)
		s.Require().Equal(roomID, rooms[0].RoomID)
		user.Close()
	})

	s.Step("Step 7: Bob leaves", func() {
		bob.Close()
		s.Require().Equal(bobID, Expect[event.UserLeft](alice).UserID)
	})

	s.Step("Step 8: A wrong key does not remove the room", func() {
		alice.Send(domain.DeleteRoom{DeleteKey: "guess"})
		s.Require().Equal(event.RemoveRoomFailed, Expect[event.Error](alice).Kind)
	})

	s.Step("Step 9: Alice removes the room", func() {
		alice.Send(domain.DeleteRoom{DeleteKey: "k"})
		s.Require().Equal(roomID, Expect[event.RoomRemoved](alice).RoomID)
		// Commands run one at a time, so the pong means storage is cleaned up
		alice.Send(domain.Ping{})
		Expect[event.Pong](alice)
		s.Require().Equal(http.StatusNotFound, s.GetJSON("/v1/rooms/"+string(roomID), nil))
	})
}
