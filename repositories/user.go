//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

type IUserRepository interface {
	CreateUser(user domain.User) (domain.User, error)
	LoadHostOfRoom(roomID domain.RoomID) (domain.User, error)
	LoadParticipantsOfRoom(roomID domain.RoomID) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// CreateUser stores the user under "user:{id}". Joining again under a new name
// overwrites the previous record.
func (u UserRepository) CreateUser(user domain.User) (domain.User, error) {
	bytes, err := encode(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userPrefix+user.ID.String()), bytes)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// LoadHostOfRoom reads the host from the stored room record.
func (u UserRepository) LoadHostOfRoom(roomID domain.RoomID) (domain.User, error) {
	var record roomRecord
	err := u.db.View(func(txn *badger.Txn) (err error) {
		record, err = loadRoomRecord(txn, roomID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record.Host)
}

// LoadParticipantsOfRoom reads the declared participants from the stored room record.
func (u UserRepository) LoadParticipantsOfRoom(roomID domain.RoomID) ([]domain.User, error) {
	var record roomRecord
	err := u.db.View(func(txn *badger.Txn) (err error) {
		record, err = loadRoomRecord(txn, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toUsers(record.Participants)
}
