package repositories

import (
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Repositories groups one store per record kind.
type Repositories struct {
	Rooms       IRoomRepository
	Users       IUserRepository
	Messages    IMessageRepository
	Memberships IRoomMembershipRepository
}

// NewBadgerRepositories backs every store with the same Badger database.
func NewBadgerRepositories(db *badger.DB, log *slog.Logger) Repositories {
	return Repositories{
		Rooms:       NewRoomRepository(db),
		Users:       NewUserRepository(db),
		Messages:    NewMessageRepository(db, log),
		Memberships: NewRoomMembershipRepository(db),
	}
}
