package ids_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanishhq/vanish/internal/ids"
)

func TestNewRoomID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := ids.NewRoomID()
		require.Len(t, id, ids.RoomIDLength)
		for _, r := range id {
			ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			assert.True(t, ok, "unexpected character %q in room id %q", r, id)
		}
		seen[id] = true
	}
	// 200 draws from a 36^8 space should effectively never collide.
	assert.Greater(t, len(seen), 190)
}

func TestNewGuestName(t *testing.T) {
	for i := 0; i < 100; i++ {
		name := ids.NewGuestName()
		require.True(t, strings.HasPrefix(name, "Guest_"), "name %q missing prefix", name)

		n, err := strconv.Atoi(strings.TrimPrefix(name, "Guest_"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestExtractRoomID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare id", "AB12CD34", "AB12CD34", true},
		{"bare id with whitespace", "  AB12CD34\n", "AB12CD34", true},
		{"full https link", "https://host/room/AB12CD34", "AB12CD34", true},
		{"relative link", "/room/ZZ99YY88", "ZZ99YY88", true},
		{"link with trailing path", "https://host/room/AB12CD34?ref=x", "AB12CD34", true},
		{"not a link", "not-a-room-link", "", false},
		{"lowercase id", "ab12cd34", "", false},
		{"too short", "AB12CD3", "", false},
		{"too long bare id", "AB12CD345", "", false},
		{"link with short id", "https://host/room/AB12", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ids.ExtractRoomID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
