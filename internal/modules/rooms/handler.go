package rooms

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vanishhq/vanish/internal/domain"
	"github.com/vanishhq/vanish/internal/ids"
	"github.com/vanishhq/vanish/internal/middleware"
	"github.com/vanishhq/vanish/internal/store"
)

// createRetries bounds how often room creation regenerates an id after
// a collision before giving up. With an 8-character alphanumeric id
// space a second collision in a row already means something is wrong.
const createRetries = 5

// Handler holds dependencies for the room lifecycle endpoints.
type Handler struct {
	store *store.RoomStore
}

// NewHandler creates a new rooms handler with its dependencies.
func NewHandler(st *store.RoomStore) *Handler {
	return &Handler{store: st}
}

// CreateRoom mints a fresh room id and inserts an empty room. The
// response is the stored room record; the caller derives the shareable
// link from its id.
func (h *Handler) CreateRoom(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	for i := 0; i < createRetries; i++ {
		room, err := h.store.CreateRoom(ids.NewRoomID())
		if err == nil {
			logger.Info("Room created", "roomID", room.ID)
			return c.JSON(http.StatusOK, room)
		}
		if !errors.Is(err, domain.ErrDuplicateRoom) {
			logger.Error("Failed to create room", "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"message": "Failed to create room",
			})
		}
		logger.Warn("Room id collision, regenerating", "attempt", i+1)
	}

	logger.Error("Room id space exhausted after repeated collisions")
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"message": "Failed to create room",
	})
}

// GetRoom returns a room record by id.
func (h *Handler) GetRoom(c echo.Context) error {
	room, err := h.store.GetRoom(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"message": "Room not found",
		})
	}
	return c.JSON(http.StatusOK, room)
}

// GetMessages returns the room's ordered message list. An unknown room
// yields an empty list, matching the read-only store contract.
func (h *Handler) GetMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.GetMessagesInRoom(c.Param("id")))
}

// GetUsers returns the room's current membership, empty for an unknown
// room.
func (h *Handler) GetUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.GetUsersInRoom(c.Param("id")))
}
