package repositories

import (
	"fmt"
	"strings"
	"time"
)

// InspectRow is a human readable view of one stored key.
type InspectRow struct {
	Key    string
	Kind   string
	At     string
	Detail string
}

// Inspect decodes a raw key/value pair as written by the Badger repositories.
// Unknown prefixes are reported as is.
func Inspect(key, value []byte) (InspectRow, error) {
	k := string(key)
	row := InspectRow{Key: k, Kind: "unknown"}
	switch {
	case strings.HasPrefix(k, "room:"):
		record, err := decode[roomRecord](value)
		if err != nil {
			return row, err
		}
		row.Kind = "room"
		row.At = formatNanos(record.CreatedAt)
		row.Detail = fmt.Sprintf("%q host=%s participants=%d scope=%s",
			record.Title, record.Host.Name, len(record.Participants), record.Scope)
	case strings.HasPrefix(k, "user:"):
		record, err := decode[userRecord](value)
		if err != nil {
			return row, err
		}
		row.Kind = "user"
		row.Detail = record.Name
	case strings.HasPrefix(k, "msg:"):
		record, err := decode[messageRecord](value)
		if err != nil {
			return row, err
		}
		row.Kind = "message"
		row.At = formatNanos(record.CreatedAt)
		row.Detail = fmt.Sprintf("%s: %s", record.Author.Name, record.Body)
	case strings.HasPrefix(k, "member-room:"):
		row.Kind = "index"
	case strings.HasPrefix(k, "member:"):
		record, err := decode[membershipRecord](value)
		if err != nil {
			return row, err
		}
		row.Kind = "membership"
		row.At = formatNanos(record.CreatedAt)
		row.Detail = fmt.Sprintf("%s in %q", record.UserID, record.RoomTitle)
	}
	return row, nil
}

func formatNanos(nanos int64) string {
	return time.Unix(0, nanos).UTC().Format(time.DateTime)
}
