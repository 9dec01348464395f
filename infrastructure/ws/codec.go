package ws

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Frame is what travels on the socket in both directions.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UserDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	User      UserDTO   `json:"user"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type MembershipDTO struct {
	RoomID    string    `json:"roomId"`
	Title     string    `json:"title"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type createRoomPayload struct {
	Title        string    `json:"title"`
	HostID       uuid.UUID `json:"hostId"`
	HostName     string    `json:"hostName"`
	Participants []UserDTO `json:"participants,omitempty"`
	DeleteKey    string    `json:"deleteKey"`
	Scope        string    `json:"scope,omitempty"`
}

type removeRoomPayload struct {
	RoomID    string `json:"roomId,omitempty"`
	DeleteKey string `json:"deleteKey"`
}

type joinRoomPayload struct {
	ClientID uuid.UUID `json:"clientId"`
	Name     string    `json:"name"`
}

type postMessagePayload struct {
	ClientID uuid.UUID `json:"clientId"`
	Body     string    `json:"body"`
}

type loadRoomsPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type errorPayload struct {
	Code string `json:"code"`
}

type roomLoadedPayload struct {
	Users          []UserDTO    `json:"users"`
	RecentMessages []MessageDTO `json:"recentMessages"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type joinedPayload struct {
	User     UserDTO      `json:"user"`
	Others   []UserDTO    `json:"others"`
	Messages []MessageDTO `json:"messages"`
}

type userJoinedPayload struct {
	RoomID string  `json:"roomId"`
	User   UserDTO `json:"user"`
}

type userLeftPayload struct {
	RoomID string    `json:"roomId"`
	UserID uuid.UUID `json:"userId"`
}

type messagePayload struct {
	Message MessageDTO `json:"message"`
}

type roomsLoadedPayload struct {
	Rooms []MembershipDTO `json:"rooms"`
}

type laggedPayload struct {
	Skipped uint64 `json:"skipped"`
}

// DecodeCommand turns an inbound frame into a command.
// Disconnect is internal and cannot be decoded.
func DecodeCommand(data []byte) (domain.Command, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	switch frame.Type {
	case domain.Ping{}.Type():
		return domain.Ping{}, nil
	case domain.LoadRoom{}.Type():
		return domain.LoadRoom{}, nil
	case domain.CreateRoom{}.Type():
		p, err := payloadOf[createRoomPayload](frame)
		if err != nil {
			return nil, err
		}
		return domain.CreateRoom{
			Title:        p.Title,
			HostID:       p.HostID,
			HostName:     p.HostName,
			Participants: lo.Map(p.Participants, func(u UserDTO, _ int) domain.User { return toUser(u) }),
			DeleteKey:    p.DeleteKey,
			Scope:        p.Scope,
		}, nil
	case domain.DeleteRoom{}.Type():
		p, err := payloadOf[removeRoomPayload](frame)
		if err != nil {
			return nil, err
		}
		return domain.DeleteRoom{RoomID: domain.RoomID(p.RoomID), DeleteKey: p.DeleteKey}, nil
	case domain.JoinRoom{}.Type():
		p, err := payloadOf[joinRoomPayload](frame)
		if err != nil {
			return nil, err
		}
		return domain.JoinRoom{ClientID: p.ClientID, Name: p.Name}, nil
	case domain.PostMessage{}.Type():
		p, err := payloadOf[postMessagePayload](frame)
		if err != nil {
			return nil, err
		}
		return domain.PostMessage{ClientID: p.ClientID, Body: p.Body}, nil
	case domain.LoadRooms{}.Type():
		// Without a payload the user registry falls back to the socket's user
		if len(frame.Payload) == 0 {
			return domain.LoadRooms{}, nil
		}
		p, err := payloadOf[loadRoomsPayload](frame)
		if err != nil {
			return nil, err
		}
		return domain.LoadRooms{UserID: p.UserID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, frame.Type)
	}
}

// EncodeCommand is the client side of DecodeCommand.
func EncodeCommand(cmd domain.Command) ([]byte, error) {
	var payload any
	switch c := cmd.(type) {
	case domain.Ping, domain.LoadRoom:
	case domain.CreateRoom:
		payload = createRoomPayload{
			Title:        c.Title,
			HostID:       c.HostID,
			HostName:     c.HostName,
			Participants: lo.Map(c.Participants, func(u domain.User, _ int) UserDTO { return fromUser(u) }),
			DeleteKey:    c.DeleteKey,
			Scope:        c.Scope,
		}
	case domain.DeleteRoom:
		payload = removeRoomPayload{RoomID: string(c.RoomID), DeleteKey: c.DeleteKey}
	case domain.JoinRoom:
		payload = joinRoomPayload{ClientID: c.ClientID, Name: c.Name}
	case domain.PostMessage:
		payload = postMessagePayload{ClientID: c.ClientID, Body: c.Body}
	case domain.LoadRooms:
		payload = loadRoomsPayload{UserID: c.UserID}
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, cmd.Type())
	}
	return encodeFrame(cmd.Type(), payload)
}

// EncodeEvent turns an event into an outbound frame.
func EncodeEvent(evt event.Event) ([]byte, error) {
	var payload any
	switch e := evt.(type) {
	case event.Pong:
	case event.Error:
		payload = errorPayload{Code: e.Kind.Code()}
	case event.RoomLoaded:
		payload = roomLoadedPayload{Users: fromUsers(e.Users), RecentMessages: fromMessages(e.RecentMessages)}
	case event.RoomCreated:
		payload = roomPayload{RoomID: string(e.RoomID)}
	case event.RoomRemoved:
		payload = roomPayload{RoomID: string(e.RoomID)}
	case event.Joined:
		payload = joinedPayload{User: fromUser(e.Self), Others: fromUsers(e.Others), Messages: fromMessages(e.Messages)}
	case event.UserJoined:
		payload = userJoinedPayload{RoomID: string(e.RoomID), User: fromUser(e.User)}
	case event.UserLeft:
		payload = userLeftPayload{RoomID: string(e.RoomID), UserID: e.UserID}
	case event.Posted:
		payload = messagePayload{Message: fromMessage(e.Message)}
	case event.UserPosted:
		payload = messagePayload{Message: fromMessage(e.Message)}
	case event.RoomsLoaded:
		payload = roomsLoadedPayload{Rooms: lo.Map(e.Rooms, func(m domain.RoomMembership, _ int) MembershipDTO {
			return MembershipDTO{RoomID: string(m.RoomID), Title: m.RoomTitle, UserID: m.UserID, CreatedAt: m.CreatedAt}
		})}
	case event.Lagged:
		payload = laggedPayload{Skipped: e.Skipped}
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, evt.Type())
	}
	return encodeFrame(evt.Type(), payload)
}

// DecodeEvent is the client side of EncodeEvent.
func DecodeEvent(data []byte) (event.Event, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	switch frame.Type {
	case event.Pong{}.Type():
		return event.Pong{}, nil
	case event.Error{}.Type():
		p, err := payloadOf[errorPayload](frame)
		if err != nil {
			return nil, err
		}
		kind, ok := event.ParseErrorKind(p.Code)
		if !ok {
			return nil, fmt.Errorf("%w: error code %q", errors.ErrMalformedFrame, p.Code)
		}
		return event.Error{Kind: kind}, nil
	case event.RoomLoaded{}.Type():
		p, err := payloadOf[roomLoadedPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.RoomLoaded{Users: toUsers(p.Users), RecentMessages: toMessages(p.RecentMessages)}, nil
	case event.RoomCreated{}.Type():
		p, err := payloadOf[roomPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.RoomCreated{RoomID: domain.RoomID(p.RoomID)}, nil
	case event.RoomRemoved{}.Type():
		p, err := payloadOf[roomPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.RoomRemoved{RoomID: domain.RoomID(p.RoomID)}, nil
	case event.Joined{}.Type():
		p, err := payloadOf[joinedPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.Joined{Self: toUser(p.User), Others: toUsers(p.Others), Messages: toMessages(p.Messages)}, nil
	case event.UserJoined{}.Type():
		p, err := payloadOf[userJoinedPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.UserJoined{RoomID: domain.RoomID(p.RoomID), User: toUser(p.User)}, nil
	case event.UserLeft{}.Type():
		p, err := payloadOf[userLeftPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.UserLeft{RoomID: domain.RoomID(p.RoomID), UserID: p.UserID}, nil
	case event.Posted{}.Type():
		p, err := payloadOf[messagePayload](frame)
		if err != nil {
			return nil, err
		}
		return event.Posted{Message: toMessage(p.Message)}, nil
	case event.UserPosted{}.Type():
		p, err := payloadOf[messagePayload](frame)
		if err != nil {
			return nil, err
		}
		return event.UserPosted{Message: toMessage(p.Message)}, nil
	case event.RoomsLoaded{}.Type():
		p, err := payloadOf[roomsLoadedPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.RoomsLoaded{Rooms: lo.Map(p.Rooms, func(m MembershipDTO, _ int) domain.RoomMembership {
			return domain.RoomMembership{RoomID: domain.RoomID(m.RoomID), UserID: m.UserID, RoomTitle: m.Title, CreatedAt: m.CreatedAt}
		})}, nil
	case event.Lagged{}.Type():
		p, err := payloadOf[laggedPayload](frame)
		if err != nil {
			return nil, err
		}
		return event.Lagged{Skipped: p.Skipped}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, frame.Type)
	}
}

func encodeFrame(tag string, payload any) ([]byte, error) {
	frame := Frame{Type: tag}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		frame.Payload = raw
	}
	return json.Marshal(frame)
}

func payloadOf[T any](frame Frame) (T, error) {
	var payload T
	if len(frame.Payload) == 0 {
		return payload, fmt.Errorf("%w: %q without payload", errors.ErrMalformedFrame, frame.Type)
	}
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	return payload, nil
}

func fromUser(u domain.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name}
}

func toUser(u UserDTO) domain.User {
	return domain.NewUser(u.ID, u.Name)
}

// Empty lists are encoded as [] rather than null.
func fromUsers(users []domain.User) []UserDTO {
	return append([]UserDTO{}, lo.Map(users, func(u domain.User, _ int) UserDTO { return fromUser(u) })...)
}

func toUsers(users []UserDTO) []domain.User {
	return lo.Map(users, func(u UserDTO, _ int) domain.User { return toUser(u) })
}

func fromMessage(m domain.Message) MessageDTO {
	return MessageDTO{ID: m.ID, User: fromUser(m.Author), Body: m.Body, CreatedAt: m.CreatedAt}
}

func toMessage(m MessageDTO) domain.Message {
	return domain.Message{ID: m.ID, Author: toUser(m.User), Body: m.Body, CreatedAt: m.CreatedAt}
}

func fromMessages(messages []domain.Message) []MessageDTO {
	return append([]MessageDTO{}, lo.Map(messages, func(m domain.Message, _ int) MessageDTO { return fromMessage(m) })...)
}

func toMessages(messages []MessageDTO) []domain.Message {
	return lo.Map(messages, func(m MessageDTO, _ int) domain.Message { return toMessage(m) })
}
