//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../mocks/mock_membership_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomMembershipRepository interface {
	CreateMembership(entry domain.RoomMembership) (domain.RoomMembership, error)
	LoadByUser(userID uuid.UUID, page, size int) ([]domain.RoomMembership, error)
	DeleteByRoom(roomID domain.RoomID) error
}

// RoomMembershipRepository keeps two keys per entry:
// "member:{user_id}:{room_id}" holds the record and is scanned by user,
// "member-room:{room_id}:{user_id}" is an empty index used to drop a room's entries.
type RoomMembershipRepository struct {
	db *badger.DB
}

func NewRoomMembershipRepository(db *badger.DB) RoomMembershipRepository {
	return RoomMembershipRepository{db: db}
}

func memberKey(userID uuid.UUID, roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", userID, roomID))
}

func memberRoomPrefix(roomID domain.RoomID) string {
	return fmt.Sprintf("member-room:%s:", roomID)
}

func (r RoomMembershipRepository) CreateMembership(entry domain.RoomMembership) (domain.RoomMembership, error) {
	bytes, err := encode(fromMembership(entry))
	if err != nil {
		return domain.RoomMembership{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(memberKey(entry.UserID, entry.RoomID), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(memberRoomPrefix(entry.RoomID)+entry.UserID.String()), nil)
	})
	if err != nil {
		return domain.RoomMembership{}, err
	}
	return entry, nil
}

// LoadByUser returns one page of the user's rooms ordered by room id. Page numbers start at 1.
func (r RoomMembershipRepository) LoadByUser(userID uuid.UUID, page, size int) ([]domain.RoomMembership, error) {
	if size <= 0 {
		return nil, nil
	}
	skip := (max(page, 1) - 1) * size

	var entries []domain.RoomMembership
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("member:%s:", userID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seen := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(entries) < size; it.Next() {
			if seen < skip {
				seen++
				continue
			}
			err := it.Item().Value(func(value []byte) error {
				record, err := decode[membershipRecord](value)
				if err != nil {
					return err
				}
				entry, err := toMembership(record)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// DeleteByRoom removes every membership of the room.
func (r RoomMembershipRepository) DeleteByRoom(roomID domain.RoomID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(memberRoomPrefix(roomID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			userID, err := uuid.Parse(string(key[len(prefix):]))
			if err != nil {
				return err
			}
			if err = txn.Delete(memberKey(userID, roomID)); err != nil {
				return err
			}
			if err = txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
