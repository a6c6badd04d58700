package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vanishhq/vanish/internal/config"
	"github.com/vanishhq/vanish/internal/logging"
	appmw "github.com/vanishhq/vanish/internal/middleware"
	"github.com/vanishhq/vanish/internal/module"
	"github.com/vanishhq/vanish/internal/pubsub"
	"github.com/vanishhq/vanish/internal/registry"
	"github.com/vanishhq/vanish/internal/store"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Registry *registry.Registry
	Store    *store.RoomStore
	PubSub   *pubsub.WatermillBridge

	publisher   pubsub.Publisher
	mounts      []mount
	bootCancel  context.CancelFunc
	otelCleanup func()
}

// New creates a new Server instance with all modules registered and
// booted. The returned server is ready to serve requests through E.
func New() *Server {
	// Load environment variables from .env file if it exists.
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet, so the standard logger is used
		// for this one message.
		log.Println("No .env file found, relying on environment variables")
	}

	logging.New() // Initialize the structured logger
	cfg := config.New()

	st := store.New()
	bridge := pubsub.NewWatermillBridge()

	tracer, otelCleanup, err := pubsub.SetupOTel(context.Background(), pubsub.LoadTracingConfigFromEnv())
	if err != nil {
		slog.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}
	publisher := pubsub.WithTracing(bridge, tracer)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger)
	setupErrorHandling(e)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Share the core services through the registry so modules can
	// discover each other without direct coupling.
	reg := registry.New(cfg)
	registry.Set(reg, registry.StoreKey, st)
	registry.Set(reg, registry.PublisherKey, publisher)
	registry.Set[pubsub.Subscriber](reg, registry.SubscriberKey, bridge)

	s := &Server{
		E:           e,
		Cfg:         cfg,
		Registry:    reg,
		Store:       st,
		PubSub:      bridge,
		publisher:   publisher,
		mounts:      appMounts(st, publisher, bridge),
		otelCleanup: otelCleanup,
	}

	for _, m := range s.mounts {
		if err := m.module.Register(reg); err != nil {
			slog.Error("Failed to register module", "module", m.module.Name(), "error", err)
			os.Exit(1)
		}
	}

	bootCtx, cancel := context.WithCancel(context.Background())
	s.bootCancel = cancel
	for _, m := range s.mounts {
		if err := m.module.Boot(bootCtx, e.Group(m.prefix), reg); err != nil {
			slog.Error("Failed to boot module", "module", m.module.Name(), "error", err)
			os.Exit(1)
		}
	}

	return s
}

// Shutdown stops all modules and the shared infrastructure. It is
// separate from the HTTP listener shutdown so tests can drive it
// directly.
func (s *Server) Shutdown(ctx context.Context) {
	for _, m := range s.mounts {
		if err := m.module.Shutdown(ctx); err != nil {
			slog.Error("Module shutdown failed", "module", m.module.Name(), "error", err)
		}
	}
	s.bootCancel()
	if err := s.PubSub.Close(); err != nil {
		slog.Error("Failed to close pub/sub bridge", "error", err)
	}
	s.otelCleanup()
}

type mount struct {
	module module.Module
	prefix string
}

// setupErrorHandling installs a custom HTTP error handler that logs
// unhandled errors with a stack trace before delegating to echo's
// default handler for the response.
func setupErrorHandling(e *echo.Echo) {
	defaultHandler := e.HTTPErrorHandler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if _, ok := err.(*echo.HTTPError); !ok {
			slog.Error("Internal Server Error (Unhandled)",
				"error", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}
		defaultHandler(err, c)
	}
}
