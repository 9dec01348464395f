//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	AddMessage(roomID domain.RoomID, message domain.Message) (domain.Message, error)
	LoadMessagesByRoom(roomID domain.RoomID, page, size int) ([]domain.Message, error)
	DeleteByRoom(roomID domain.RoomID) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

func messagePrefix(roomID domain.RoomID) string {
	return fmt.Sprintf("msg:%s:", roomID)
}

// AddMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) AddMessage(roomID domain.RoomID, message domain.Message) (domain.Message, error) {
	key := fmt.Sprintf("%s%019d:%s",
		messagePrefix(roomID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := encode(fromMessage(roomID, message))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// LoadMessagesByRoom returns one page of the room history, newest page first.
// Page numbers start at 1. Messages inside a page are ordered oldest to newest.
// Thanks to the padded timestamp in the key, a reverse prefix scan walks the history backwards.
func (m MessageRepository) LoadMessagesByRoom(roomID domain.RoomID, page, size int) ([]domain.Message, error) {
	if size <= 0 {
		return nil, nil
	}
	page = max(page, 1)
	skip := (page - 1) * size

	var records []messageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Let's go past the newest position msg:{room}:9999999999999999999
		// Then, we go back and collect the page
		seekKey := append(prefix, []byte("9999999999999999999")...)
		seen := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if seen < skip {
				seen++
				continue
			}
			if len(records) == size {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", size))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				record, err := decode[messageRecord](value)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(records)
	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		message, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// DeleteByRoom drops the whole history of the room.
// Room ids cannot contain ':' so the prefix never reaches another room.
// Keys are collected first, then removed through a write batch so a long
// history does not hit the transaction size limit.
func (m MessageRepository) DeleteByRoom(roomID domain.RoomID) error {
	var keys [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(roomID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	batch := m.db.NewWriteBatch()
	for _, key := range keys {
		if err = batch.Delete(key); err != nil {
			batch.Cancel()
			return err
		}
	}
	if err = batch.Flush(); err != nil {
		return err
	}
	m.log.Debug(fmt.Sprintf("%d messages deleted", len(keys)), "room", roomID)
	return nil
}
