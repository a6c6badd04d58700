package chat

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/vanishhq/vanish/internal/module"
	"github.com/vanishhq/vanish/internal/pubsub"
	"github.com/vanishhq/vanish/internal/registry"
	"github.com/vanishhq/vanish/internal/store"
)

// CoordinatorKey exposes the session coordinator to other modules.
var CoordinatorKey = registry.Key[*Coordinator]("chat.coordinator")

// ChatModule implements the module.Module interface for the realtime
// chat feature.
type ChatModule struct {
	module.BaseModule
	store      *store.RoomStore
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber

	coord *Coordinator
}

// Dependencies holds all the services that the ChatModule requires to
// operate. This struct is used for constructor injection to make
// dependencies explicit.
type Dependencies struct {
	Store      *store.RoomStore
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
}

// New creates a new instance of the ChatModule, injecting its dependencies.
func New(deps Dependencies) *ChatModule {
	return &ChatModule{
		store:      deps.Store,
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register creates the session coordinator and publishes it in the
// registry so other modules can reach it.
func (m *ChatModule) Register(reg *registry.Registry) error {
	m.coord = NewCoordinator(m.store, m.publisher)
	registry.Set(reg, CoordinatorKey, m.coord)
	return nil
}

// Boot starts the coordinator's event loop and mounts the WebSocket
// endpoint.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Booting ChatModule: starting session coordinator")
	if err := m.coord.Start(ctx, m.subscriber); err != nil {
		return err
	}

	handler := NewHandler(m.coord, reg.Config().GetAllowedOrigins())
	g.GET("/ws", handler.ServeWS)

	return nil
}

// Shutdown is called on application termination. Live connections are
// torn down by the server closing the listener; the coordinator's loop
// stops with the boot context.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down ChatModule...")
	return nil
}
