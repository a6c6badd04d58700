// Package ids generates the short identifiers the chat service hands out:
// room ids and guest display names. It also knows how to pull a room id
// out of a shareable room link, which clients use to validate input
// before ever contacting the server.
package ids

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// RoomIDLength is the fixed length of a room identifier.
const RoomIDLength = 8

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	roomIDPattern   = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	roomLinkPattern = regexp.MustCompile(`/room/([A-Z0-9]{8})`)
)

// NewRoomID returns an 8-character identifier drawn uniformly from
// [A-Z0-9]. The 36^8 space makes collisions unlikely; callers that care
// should retry on a duplicate rather than rely on uniqueness here.
func NewRoomID() string {
	b := make([]byte, RoomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[rand.IntN(len(roomIDAlphabet))]
	}
	return string(b)
}

// NewGuestName returns a generated display name of the form
// "Guest_<n>" with n in [1000, 9999]. Names are not unique.
func NewGuestName() string {
	return fmt.Sprintf("Guest_%d", 1000+rand.IntN(9000))
}

// ExtractRoomID accepts either a bare 8-character room id or any
// URL-like string containing "/room/<id>", and returns the id. The
// second return value is false when the input matches neither shape.
func ExtractRoomID(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if roomIDPattern.MatchString(trimmed) {
		return trimmed, true
	}
	if m := roomLinkPattern.FindStringSubmatch(trimmed); m != nil {
		return m[1], true
	}
	return "", false
}
