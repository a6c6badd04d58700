package rooms

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/vanishhq/vanish/internal/module"
	"github.com/vanishhq/vanish/internal/registry"
	"github.com/vanishhq/vanish/internal/store"
)

// RoomsModule implements the module.Module interface for the room
// lifecycle REST endpoints.
type RoomsModule struct {
	module.BaseModule
	store *store.RoomStore
}

// Dependencies holds the services the RoomsModule requires.
type Dependencies struct {
	Store *store.RoomStore
}

// New creates a new instance of the RoomsModule, injecting its dependencies.
func New(deps Dependencies) *RoomsModule {
	return &RoomsModule{store: deps.Store}
}

// Name returns the module name.
func (m *RoomsModule) Name() string {
	return "rooms"
}

// Boot mounts the room lifecycle endpoints.
func (m *RoomsModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Booting RoomsModule: Setting up routes...")
	handler := NewHandler(m.store)

	g.POST("/rooms", handler.CreateRoom)
	g.GET("/rooms/:id", handler.GetRoom)
	g.GET("/rooms/:id/messages", handler.GetMessages)
	g.GET("/rooms/:id/users", handler.GetUsers)

	return nil
}
