package chat

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/vanishhq/vanish/internal/domain"
)

// EventType discriminates the frames exchanged over a chat connection.
// One JSON frame carries exactly one event.
type EventType string

// Inbound event types.
const (
	EventJoinRoom    EventType = "join_room"
	EventSendMessage EventType = "send_message"
)

// Outbound event types.
const (
	EventJoinedRoom      EventType = "joined_room"
	EventMessagesHistory EventType = "messages_history"
	EventUsersList       EventType = "users_list"
	EventNewMessage      EventType = "new_message"
	EventUserJoined      EventType = "user_joined"
	EventUserLeft        EventType = "user_left"
	EventError           EventType = "error"
)

// User-visible error strings. Clients receive these as one-line
// messages; no structured error codes cross the wire.
const (
	errRoomNotFound  = "Room not found"
	errNotInRoom     = "Not connected to a room"
	errInvalidFormat = "Invalid message format"
	errAlreadyInRoom = "Already in a room"
	errJoinFailed    = "Failed to join room"
	errSendFailed    = "Failed to send message"
)

// ErrMalformedEvent is returned by ParseInbound for frames that cannot
// be decoded, fail validation, or carry an unknown event type.
var ErrMalformedEvent = errors.New("malformed event")

var validate = validator.New()

// JoinRoom is a client's request to enter a room.
type JoinRoom struct {
	RoomID string `json:"roomId" validate:"required"`
}

// SendMessage is a client's request to post a message to its room.
type SendMessage struct {
	Content string `json:"content" validate:"required"`
}

// ParseInbound decodes a raw frame into one of the closed set of
// inbound events (*JoinRoom or *SendMessage). Unknown or invalid
// frames are rejected here, at the boundary, rather than inside
// handler logic.
func ParseInbound(data []byte) (any, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, ErrMalformedEvent
	}

	switch head.Type {
	case EventJoinRoom:
		var ev JoinRoom
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, ErrMalformedEvent
		}
		if err := validate.Struct(&ev); err != nil {
			return nil, ErrMalformedEvent
		}
		return &ev, nil

	case EventSendMessage:
		var ev SendMessage
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, ErrMalformedEvent
		}
		if err := validate.Struct(&ev); err != nil {
			return nil, ErrMalformedEvent
		}
		return &ev, nil

	default:
		return nil, ErrMalformedEvent
	}
}

type joinedRoomEvent struct {
	Type EventType    `json:"type"`
	User *domain.User `json:"user"`
	Room *domain.Room `json:"room"`
}

type messagesHistoryEvent struct {
	Type     EventType        `json:"type"`
	Messages []domain.Message `json:"messages"`
}

type usersListEvent struct {
	Type  EventType     `json:"type"`
	Users []domain.User `json:"users"`
}

type newMessageEvent struct {
	Type    EventType       `json:"type"`
	Message *domain.Message `json:"message"`
}

type userJoinedEvent struct {
	Type      EventType       `json:"type"`
	User      *domain.User    `json:"user"`
	Message   *domain.Message `json:"message"`
	UserCount int             `json:"userCount"`
}

type userLeftEvent struct {
	Type      EventType       `json:"type"`
	UserID    string          `json:"userId"`
	Message   *domain.Message `json:"message"`
	UserCount int             `json:"userCount"`
}

type errorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

func mustMarshal(v any) []byte {
	// Every outbound event is a plain struct of JSON-safe fields, so a
	// marshal failure is a programming error.
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// JoinedRoomFrame confirms a successful join to the joining connection.
func JoinedRoomFrame(user *domain.User, room *domain.Room) []byte {
	return mustMarshal(joinedRoomEvent{Type: EventJoinedRoom, User: user, Room: room})
}

// MessagesHistoryFrame carries the room's full ordered message list.
func MessagesHistoryFrame(messages []domain.Message) []byte {
	return mustMarshal(messagesHistoryEvent{Type: EventMessagesHistory, Messages: messages})
}

// UsersListFrame carries the room's current membership.
func UsersListFrame(users []domain.User) []byte {
	return mustMarshal(usersListEvent{Type: EventUsersList, Users: users})
}

// NewMessageFrame announces a stored message to the room, sender included.
func NewMessageFrame(msg *domain.Message) []byte {
	return mustMarshal(newMessageEvent{Type: EventNewMessage, Message: msg})
}

// UserJoinedFrame announces a new member to everyone else in the room.
func UserJoinedFrame(user *domain.User, msg *domain.Message, userCount int) []byte {
	return mustMarshal(userJoinedEvent{Type: EventUserJoined, User: user, Message: msg, UserCount: userCount})
}

// UserLeftFrame announces a departure to the remaining members.
func UserLeftFrame(userID string, msg *domain.Message, userCount int) []byte {
	return mustMarshal(userLeftEvent{Type: EventUserLeft, UserID: userID, Message: msg, UserCount: userCount})
}

// ErrorFrame carries a one-line human-readable error to the offending
// connection.
func ErrorFrame(message string) []byte {
	return mustMarshal(errorEvent{Type: EventError, Message: message})
}
