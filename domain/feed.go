package domain

import (
	"iter"
	"slices"
)

// Feed is the time-ordered message history of one room.
// It is owned by a single Hub and is not safe for concurrent use on its own:
// the owning Hub guards every read and write with its lock.
type Feed struct {
	messages []Message
}

func NewFeed() *Feed {
	return &Feed{}
}

// Add appends the message and keeps the feed sorted by CreatedAt.
// Messages sharing a timestamp keep their insertion order.
func (f *Feed) Add(message Message) {
	f.messages = append(f.messages, message)
	slices.SortStableFunc(f.messages, func(a, b Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func (f *Feed) IsEmpty() bool {
	return len(f.messages) == 0
}

func (f *Feed) Len() int {
	return len(f.messages)
}

// All yields the current messages oldest first. The sequence can be ranged over
// any number of times; each pass reflects the contents at the time it starts.
func (f *Feed) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range slices.Clone(f.messages) {
			if !yield(m) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the messages oldest first.
func (f *Feed) Snapshot() []Message {
	return slices.Collect(f.All())
}
