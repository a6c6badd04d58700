package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanishhq/vanish/internal/domain"
	"github.com/vanishhq/vanish/internal/server"
)

func setupIntegrationTest(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()

	s := server.New()
	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, ts
}

func createRoom(t *testing.T, ts *httptest.Server) domain.Room {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/rooms", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var room domain.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	return room
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err, "Failed to connect to websocket")
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

// readEvent reads the next frame and asserts its type discriminator,
// returning the raw bytes.
func readEvent(t *testing.T, conn *websocket.Conn, wantType string) []byte {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, frame, err := conn.Read(ctx)
	require.NoError(t, err, "Failed to read frame while waiting for %q", wantType)

	var head struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(frame, &head))
	require.Equal(t, wantType, head.Type, "unexpected frame: %s", frame)
	return frame
}

func TestServer_Health(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestServer_RoomLifecycle drives a full room session over the real
// HTTP and WebSocket surfaces: create, two participants joining,
// messaging, and the delete-on-empty cascade.
func TestServer_RoomLifecycle(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	room := createRoom(t, ts)
	assert.Equal(t, 0, room.UserCount)

	// First participant joins.
	alice := dialWS(t, ts)
	defer alice.Close(websocket.StatusNormalClosure, "")
	sendEvent(t, alice, fmt.Sprintf(`{"type":"join_room","roomId":%q}`, room.ID))

	var joined struct {
		User domain.User `json:"user"`
		Room domain.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, alice, "joined_room"), &joined))
	assert.Equal(t, room.ID, joined.Room.ID)
	assert.Equal(t, 1, joined.Room.UserCount)
	readEvent(t, alice, "messages_history")
	readEvent(t, alice, "users_list")

	// Second participant joins; the first one is notified.
	bob := dialWS(t, ts)
	sendEvent(t, bob, fmt.Sprintf(`{"type":"join_room","roomId":%q}`, room.ID))
	readEvent(t, bob, "joined_room")
	readEvent(t, bob, "messages_history")
	readEvent(t, bob, "users_list")

	var userJoined struct {
		UserCount int `json:"userCount"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, alice, "user_joined"), &userJoined))
	assert.Equal(t, 2, userJoined.UserCount)

	// A message reaches both participants, the sender included.
	sendEvent(t, bob, `{"type":"send_message","content":"hello from bob"}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		var ev struct {
			Message domain.Message `json:"message"`
		}
		require.NoError(t, json.Unmarshal(readEvent(t, conn, "new_message"), &ev))
		assert.Equal(t, "hello from bob", ev.Message.Content)
	}

	// The REST surface reflects the live state.
	resp, err := http.Get(ts.URL + "/api/rooms/" + room.ID + "/users")
	require.NoError(t, err)
	var users []domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	resp.Body.Close()
	assert.Len(t, users, 2)

	// Second participant leaves; the first one sees the departure.
	require.NoError(t, bob.Close(websocket.StatusNormalClosure, "done"))

	var userLeft struct {
		UserCount int `json:"userCount"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, alice, "user_left"), &userLeft))
	assert.Equal(t, 1, userLeft.UserCount)

	// Last participant leaves; the room is garbage-collected and the
	// REST surface reports it gone.
	require.NoError(t, alice.Close(websocket.StatusNormalClosure, "done"))

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/rooms/" + room.ID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 50*time.Millisecond, "empty room should be deleted")
}

func TestServer_JoinUnknownRoom(t *testing.T) {
	_, ts := setupIntegrationTest(t)

	conn := dialWS(t, ts)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendEvent(t, conn, `{"type":"join_room","roomId":"ZZ99ZZ99"}`)

	var ev struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(readEvent(t, conn, "error"), &ev))
	assert.Equal(t, "Room not found", ev.Message)
}
