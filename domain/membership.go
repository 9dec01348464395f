package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomMembership links a user to a room they belong to.
// The room title is denormalized so a user's room list needs no extra lookup.
type RoomMembership struct {
	RoomID    RoomID
	UserID    uuid.UUID
	RoomTitle string
	CreatedAt time.Time
}
