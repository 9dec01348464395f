package event

// ErrorKind enumerates the user facing failures. They are always delivered
// as Error events and never stop the server.
type ErrorKind int

const (
	RoomNotExists ErrorKind = iota + 1
	RoomNameTaken
	HostUserNotExists
	InvalidRoomName
	RemoveRoomFailed
	UserNameTaken
	InvalidUserName
	UserNotJoined
	InvalidMessageBody
	InvalidDeleteKey
)

var errorCodes = map[ErrorKind]string{
	RoomNotExists:      "room-notexists",
	RoomNameTaken:      "room-name-taken",
	HostUserNotExists:  "host-notexists",
	InvalidRoomName:    "invalid-room-name",
	RemoveRoomFailed:   "remove-room-failed",
	UserNameTaken:      "name-taken",
	InvalidUserName:    "invalid-name",
	UserNotJoined:      "not-joined",
	InvalidMessageBody: "invalid-message-body",
	InvalidDeleteKey:   "invalid-delete-key",
}

// Code is the wire code of the error kind.
func (k ErrorKind) Code() string {
	if code, ok := errorCodes[k]; ok {
		return code
	}
	return "unknown"
}

func (k ErrorKind) String() string {
	return k.Code()
}

// ParseErrorKind maps a wire code back to its kind.
func ParseErrorKind(code string) (ErrorKind, bool) {
	for kind, c := range errorCodes {
		if c == code {
			return kind, true
		}
	}
	return 0, false
}
