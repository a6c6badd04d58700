package domain

import "time"

// SystemAuthorID is the sentinel author id used for server-generated
// messages such as join and leave notices.
const SystemAuthorID = "system"

// SystemAuthorName is the display name attached to system messages.
const SystemAuthorName = "System"

// Room represents an ephemeral chat room. Rooms live only in memory and
// are destroyed the moment their last member departs.
type Room struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UserCount int       `json:"userCount"`
}

// User is a room membership record. There is exactly one active record
// per live connection; it is created on join and destroyed on disconnect.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	RoomID   string    `json:"roomId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Message is an immutable chat message. Messages belong to exactly one
// room and are destroyed together with it.
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	RoomID     string    `json:"roomId"`
	Timestamp  time.Time `json:"timestamp"`
}
