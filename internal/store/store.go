// Package store holds all room, membership, and message state for the
// service. Everything lives in process memory: a room is created on
// request and garbage-collected synchronously the moment its last
// member leaves. The store is the single source of truth for room
// contents; callers must never cache counts or membership on the side.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vanishhq/vanish/internal/domain"
)

// RoomStore is an in-memory repository of rooms, users, and messages.
// All operations are atomic with respect to each other; no caller can
// observe a half-updated user count versus membership set.
type RoomStore struct {
	mu sync.RWMutex

	rooms    map[string]*domain.Room
	users    map[string]*domain.User
	messages map[string]*domain.Message

	// Per-room indexes, both kept in insertion order. roomUsers gives
	// GetUsersInRoom a stable join order; roomMessages gives message
	// retrieval its tie-break order for equal timestamps.
	roomUsers    map[string][]string
	roomMessages map[string][]string

	now func() time.Time
}

// Option configures a RoomStore.
type Option func(*RoomStore)

// WithClock overrides the store's time source. Tests use this to pin
// timestamps and to exercise equal-timestamp ordering.
func WithClock(now func() time.Time) Option {
	return func(s *RoomStore) {
		s.now = now
	}
}

// New creates an empty RoomStore.
func New(opts ...Option) *RoomStore {
	s := &RoomStore{
		rooms:        make(map[string]*domain.Room),
		users:        make(map[string]*domain.User),
		messages:     make(map[string]*domain.Message),
		roomUsers:    make(map[string][]string),
		roomMessages: make(map[string][]string),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom inserts a new room with a zero user count and empty member
// and message sets. It returns domain.ErrDuplicateRoom if the id is
// already taken; the caller is expected to generate a fresh id.
func (s *RoomStore) CreateRoom(id string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[id]; exists {
		return nil, domain.ErrDuplicateRoom
	}

	room := &domain.Room{
		ID:        id,
		CreatedAt: s.now(),
		UserCount: 0,
	}
	s.rooms[id] = room
	s.roomUsers[id] = nil
	s.roomMessages[id] = nil

	copied := *room
	return &copied, nil
}

// GetRoom returns the room with the given id, or domain.ErrRoomNotFound.
func (s *RoomStore) GetRoom(id string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

// DeleteRoom removes a room and cascades deletion of all its messages
// and membership records. Deleting an absent room is a no-op.
func (s *RoomStore) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteRoomLocked(id)
}

func (s *RoomStore) deleteRoomLocked(id string) {
	delete(s.rooms, id)

	for _, userID := range s.roomUsers[id] {
		delete(s.users, userID)
	}
	delete(s.roomUsers, id)

	for _, msgID := range s.roomMessages[id] {
		delete(s.messages, msgID)
	}
	delete(s.roomMessages, id)
}

// GetRoomUserCount returns the number of members in a room, or 0 for an
// absent room. Callers that need to distinguish absence should call
// GetRoom first.
func (s *RoomStore) GetRoomUserCount(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roomUsers[id])
}

// AddUserToRoom inserts a membership record for an existing room,
// assigns the join timestamp, and bumps the room's user count. It
// returns domain.ErrRoomNotFound if the room does not exist.
func (s *RoomStore) AddUserToRoom(user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[user.RoomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	user.JoinedAt = s.now()
	stored := user
	s.users[user.ID] = &stored
	s.roomUsers[user.RoomID] = append(s.roomUsers[user.RoomID], user.ID)
	room.UserCount = len(s.roomUsers[user.RoomID])

	copied := stored
	return &copied, nil
}

// RemoveUserFromRoom deletes a membership record if present and updates
// the room's user count. When the count reaches zero the room is
// deleted immediately, along with all its messages. This synchronous
// cascade is the core lifecycle rule of the service; there is no
// timer-based cleanup.
func (s *RoomStore) RemoveUserFromRoom(userID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only an actual membership in this room may be removed; a call
	// naming the wrong room must not destroy the user record another
	// room's index still references.
	members := s.roomUsers[roomID]
	idx := -1
	for i, id := range members {
		if id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	delete(s.users, userID)
	s.roomUsers[roomID] = append(members[:idx], members[idx+1:]...)

	if room, ok := s.rooms[roomID]; ok {
		room.UserCount = len(s.roomUsers[roomID])
	}

	if len(s.roomUsers[roomID]) == 0 {
		s.deleteRoomLocked(roomID)
	}
}

// GetUsersInRoom returns the members of a room in join order. An absent
// room yields an empty slice.
func (s *RoomStore) GetUsersInRoom(roomID string) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberIDs := s.roomUsers[roomID]
	users := make([]domain.User, 0, len(memberIDs))
	for _, id := range memberIDs {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users
}

// GetUser returns a membership record by user id.
func (s *RoomStore) GetUser(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// AddMessage assigns a fresh id and timestamp to the message and
// appends it to the room's message sequence. It returns
// domain.ErrRoomNotFound if the room does not exist.
func (s *RoomStore) AddMessage(msg domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[msg.RoomID]; !ok {
		return nil, domain.ErrRoomNotFound
	}

	msg.ID = uuid.NewString()
	msg.Timestamp = s.now()
	stored := msg
	s.messages[msg.ID] = &stored
	s.roomMessages[msg.RoomID] = append(s.roomMessages[msg.RoomID], msg.ID)

	copied := stored
	return &copied, nil
}

// GetMessagesInRoom returns all messages for a room ordered by
// timestamp ascending, with insertion order breaking ties. An absent
// room yields an empty slice.
func (s *RoomStore) GetMessagesInRoom(roomID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgIDs := s.roomMessages[roomID]
	messages := make([]domain.Message, 0, len(msgIDs))
	for _, id := range msgIDs {
		if msg, ok := s.messages[id]; ok {
			messages = append(messages, *msg)
		}
	}

	// The slice is already in insertion order, so a stable sort keeps
	// that order for equal timestamps.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages
}
