//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const roomPrefix = "room:"

type IRoomRepository interface {
	CreateRoom(room domain.Room) (domain.Room, error)
	LoadOneRoom(roomID domain.RoomID) (domain.Room, error)
	RoomExists(roomID domain.RoomID) (bool, error)
	DeleteRoom(roomID domain.RoomID) error
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

func roomKey(roomID domain.RoomID) []byte {
	return []byte(roomPrefix + string(roomID))
}

// CreateRoom stores the room under "room:{room_id}", replacing any previous record.
func (r RoomRepository) CreateRoom(room domain.Room) (domain.Room, error) {
	bytes, err := encode(fromRoom(room))
	if err != nil {
		return domain.Room{}, fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), bytes)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// LoadOneRoom returns errors.ErrNotFound when the room was never stored or was deleted.
func (r RoomRepository) LoadOneRoom(roomID domain.RoomID) (domain.Room, error) {
	var record roomRecord
	err := r.db.View(func(txn *badger.Txn) (err error) {
		record, err = loadRoomRecord(txn, roomID)
		return err
	})
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(record)
}

func (r RoomRepository) RoomExists(roomID domain.RoomID) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(roomID))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r RoomRepository) DeleteRoom(roomID domain.RoomID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(roomID))
	})
}

// loadRoomRecord is shared with the user repository which answers host and
// participant queries from the room record.
func loadRoomRecord(txn *badger.Txn, roomID domain.RoomID) (roomRecord, error) {
	item, err := txn.Get(roomKey(roomID))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return roomRecord{}, fmt.Errorf("room %s: %w", roomID, errors.ErrNotFound)
	}
	if err != nil {
		return roomRecord{}, err
	}
	var record roomRecord
	err = item.Value(func(val []byte) error {
		record, err = decode[roomRecord](val)
		return err
	})
	return record, err
}
