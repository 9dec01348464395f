package domain

import "github.com/google/uuid"

// User is a room member. Two users are the same user when their ids match.
type User struct {
	ID   uuid.UUID
	Name string
}

func NewUser(id uuid.UUID, name string) User {
	return User{ID: id, Name: name}
}

func (u User) Equal(other User) bool {
	return u.ID == other.ID
}
