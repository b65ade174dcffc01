package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/config"
	publicroutes "github.com/ncecere/model_directory/internal/httpserver/public"
)

const defaultShutdownDelay = 5 * time.Second

// Server serves the provider directory API and the event relay.
type Server struct {
	app      *fiber.App
	settings config.ServerConfig
}

// New builds the directory HTTP surface on top of a wired container.
func New(container *app.Container) (*Server, error) {
	if container == nil {
		return nil, errors.New("dependency container is required")
	}
	if container.Config == nil {
		return nil, errors.New("container missing config")
	}
	settings := container.Config.Server

	fiberApp := fiber.New(fiberConfig(settings))
	fiberApp.Use(requestid.New(), logger.New(), recover.New())
	if obs := container.Observability; obs != nil {
		fiberApp.Use(observeRequests(obs))
		if handler := obs.PrometheusHandler(); handler != nil {
			fiberApp.Get("/metrics", adaptor.HTTPHandler(handler))
		}
	}

	registerHealthRoutes(fiberApp, container)
	publicroutes.Register(fiberApp, container)

	return &Server{app: fiberApp, settings: settings}, nil
}

func fiberConfig(settings config.ServerConfig) fiber.Config {
	return fiber.Config{
		DisableStartupMessage: true,
		ServerHeader:          "model-directory",
		BodyLimit:             settings.BodyLimitMB << 20,
		ReadTimeout:           settings.ReadTimeout,
		IdleTimeout:           settings.IdleTimeout,
		ReadBufferSize:        4 << 10,
		WriteBufferSize:       4 << 10,
	}
}

// App exposes the underlying Fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled, then drains within the configured
// graceful shutdown delay.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listen(s.settings.ListenAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := s.shutdown(); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) shutdown() error {
	delay := s.settings.GracefulShutdownDelay
	if delay <= 0 {
		delay = defaultShutdownDelay
	}
	ctx, cancel := context.WithTimeout(context.Background(), delay)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
