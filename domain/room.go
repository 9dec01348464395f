package domain

import (
	"crypto/subtle"
	"time"

	"github.com/samber/lo"
)

const DefaultScope = "public"

type RoomID string

// Room holds the persistent metadata of a chat room.
// DeleteKey is a capability token re-supplied on deletion; it never leaves the server.
type Room struct {
	ID           RoomID
	Title        string
	Host         User
	Participants []User
	CreatedAt    time.Time
	Scope        string
	DeleteKey    string
}

// Members returns the host followed by the declared participants, without duplicate ids.
func (r Room) Members() []User {
	return lo.UniqBy(append([]User{r.Host}, r.Participants...), func(u User) string {
		return u.ID.String()
	})
}

// CanDelete reports whether key matches the room's delete key.
func (r Room) CanDelete(key string) bool {
	return subtle.ConstantTimeCompare([]byte(r.DeleteKey), []byte(key)) == 1
}
