package rooms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanishhq/vanish/internal/domain"
	"github.com/vanishhq/vanish/internal/store"
)

func request(t *testing.T, h echo.HandlerFunc, method, path, paramValue string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramValue != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramValue)
	}
	require.NoError(t, h(c))
	return rec
}

func TestCreateRoom(t *testing.T) {
	st := store.New()
	h := NewHandler(st)

	rec := request(t, h.CreateRoom, http.MethodPost, "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var room domain.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), room.ID)
	assert.Equal(t, 0, room.UserCount)
	assert.False(t, room.CreatedAt.IsZero())

	stored, err := st.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, stored.ID)
}

func TestCreateRoom_FreshIDs(t *testing.T) {
	st := store.New()
	h := NewHandler(st)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec := request(t, h.CreateRoom, http.MethodPost, "/api/rooms", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var room domain.Room
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
		assert.False(t, seen[room.ID], "room id %s handed out twice", room.ID)
		seen[room.ID] = true
	}
}

func TestGetRoom(t *testing.T) {
	st := store.New()
	created, err := st.CreateRoom("AB12CD34")
	require.NoError(t, err)
	h := NewHandler(st)

	rec := request(t, h.GetRoom, http.MethodGet, "/api/rooms/AB12CD34", "AB12CD34")
	require.Equal(t, http.StatusOK, rec.Code)

	var room domain.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, created.ID, room.ID)
	assert.Equal(t, 0, room.UserCount)
}

func TestGetRoom_NotFound(t *testing.T) {
	h := NewHandler(store.New())

	rec := request(t, h.GetRoom, http.MethodGet, "/api/rooms/ZZ99ZZ99", "ZZ99ZZ99")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Room not found", body["message"])
}

func TestGetMessages(t *testing.T) {
	st := store.New()
	_, err := st.CreateRoom("AB12CD34")
	require.NoError(t, err)
	_, err = st.AddMessage(domain.Message{
		Content:    "hello",
		AuthorID:   "u1",
		AuthorName: "Guest_1234",
		RoomID:     "AB12CD34",
	})
	require.NoError(t, err)
	h := NewHandler(st)

	rec := request(t, h.GetMessages, http.MethodGet, "/api/rooms/AB12CD34/messages", "AB12CD34")
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestGetMessages_UnknownRoomIsEmptyList(t *testing.T) {
	h := NewHandler(store.New())

	rec := request(t, h.GetMessages, http.MethodGet, "/api/rooms/ZZ99ZZ99/messages", "ZZ99ZZ99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetUsers(t *testing.T) {
	st := store.New()
	_, err := st.CreateRoom("AB12CD34")
	require.NoError(t, err)
	_, err = st.AddUserToRoom(domain.User{ID: "u1", Name: "Guest_1234", RoomID: "AB12CD34"})
	require.NoError(t, err)
	h := NewHandler(st)

	rec := request(t, h.GetUsers, http.MethodGet, "/api/rooms/AB12CD34/users", "AB12CD34")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Guest_1234", users[0].Name)
}

func TestGetUsers_UnknownRoomIsEmptyList(t *testing.T) {
	h := NewHandler(store.New())

	rec := request(t, h.GetUsers, http.MethodGet, "/api/rooms/ZZ99ZZ99/users", "ZZ99ZZ99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
