// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageBodyLength is counted in code points, not bytes.
const MaxMessageBodyLength = 256

// Message represents an immutable chat post.
type Message struct {
	ID        uuid.UUID // unique identifier
	Author    User
	Body      string
	CreatedAt time.Time
}

func NewMessage(author User, body string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Author:    author,
		Body:      body,
		CreatedAt: at,
	}
}
