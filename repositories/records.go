package repositories

import (
	"chat-hub/domain"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// On-disk records. Ids are stored as strings and instants as unix nanoseconds
// so records stay readable by the inspect tool without domain types.

type userRecord struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name"`
}

type roomRecord struct {
	ID           string       `cbor:"id"`
	Title        string       `cbor:"title"`
	Host         userRecord   `cbor:"host"`
	Participants []userRecord `cbor:"participants"`
	CreatedAt    int64        `cbor:"created_at"`
	Scope        string       `cbor:"scope"`
	DeleteKey    string       `cbor:"delete_key"`
}

type messageRecord struct {
	ID        string     `cbor:"id"`
	Room      string     `cbor:"room"`
	Author    userRecord `cbor:"author"`
	Body      string     `cbor:"body"`
	CreatedAt int64      `cbor:"created_at"`
}

type membershipRecord struct {
	RoomID    string `cbor:"room_id"`
	UserID    string `cbor:"user_id"`
	RoomTitle string `cbor:"room_title"`
	CreatedAt int64  `cbor:"created_at"`
}

func encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func decode[T any](data []byte) (T, error) {
	var v T
	err := cbor.Unmarshal(data, &v)
	return v, err
}

func fromUser(user domain.User) userRecord {
	return userRecord{ID: user.ID.String(), Name: user.Name}
}

func toUser(record userRecord) (domain.User, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.NewUser(id, record.Name), nil
}

func fromRoom(room domain.Room) roomRecord {
	return roomRecord{
		ID:           string(room.ID),
		Title:        room.Title,
		Host:         fromUser(room.Host),
		Participants: lo.Map(room.Participants, func(u domain.User, _ int) userRecord { return fromUser(u) }),
		CreatedAt:    room.CreatedAt.UnixNano(),
		Scope:        room.Scope,
		DeleteKey:    room.DeleteKey,
	}
}

func toRoom(record roomRecord) (domain.Room, error) {
	host, err := toUser(record.Host)
	if err != nil {
		return domain.Room{}, err
	}
	participants, err := toUsers(record.Participants)
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:           domain.RoomID(record.ID),
		Title:        record.Title,
		Host:         host,
		Participants: participants,
		CreatedAt:    time.Unix(0, record.CreatedAt).UTC(),
		Scope:        record.Scope,
		DeleteKey:    record.DeleteKey,
	}, nil
}

func toUsers(records []userRecord) ([]domain.User, error) {
	users := make([]domain.User, 0, len(records))
	for _, r := range records {
		user, err := toUser(r)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func fromMessage(roomID domain.RoomID, message domain.Message) messageRecord {
	return messageRecord{
		ID:        message.ID.String(),
		Room:      string(roomID),
		Author:    fromUser(message.Author),
		Body:      message.Body,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	author, err := toUser(record.Author)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		Author:    author,
		Body:      record.Body,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}

func fromMembership(entry domain.RoomMembership) membershipRecord {
	return membershipRecord{
		RoomID:    string(entry.RoomID),
		UserID:    entry.UserID.String(),
		RoomTitle: entry.RoomTitle,
		CreatedAt: entry.CreatedAt.UnixNano(),
	}
}

func toMembership(record membershipRecord) (domain.RoomMembership, error) {
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return domain.RoomMembership{}, err
	}
	return domain.RoomMembership{
		RoomID:    domain.RoomID(record.RoomID),
		UserID:    userID,
		RoomTitle: record.RoomTitle,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
