package domain

import "errors"

// ErrRoomNotFound is returned when an operation targets a room that does
// not exist (or no longer exists).
var ErrRoomNotFound = errors.New("room not found")

// ErrDuplicateRoom is returned when creating a room with an id that is
// already in use. Callers are expected to generate a fresh id and retry.
var ErrDuplicateRoom = errors.New("room id already exists")

// ErrNotInRoom is returned when a connection attempts a room-scoped
// action before it has joined a room.
var ErrNotInRoom = errors.New("not connected to a room")

// ErrUserNotFound is returned when a membership record lookup fails.
var ErrUserNotFound = errors.New("user not found")
