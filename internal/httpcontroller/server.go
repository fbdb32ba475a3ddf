// Package httpcontroller hosts the HTTP surface of the server: the
// WebSocket upgrade endpoint, a JSON status page, and the session API.
package httpcontroller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/datastore"
	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/router"
)

// Server ties the echo instance to the distribution router and the session
// index.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings

	router *router.Router
	ds     datastore.Interface
	cache  *cache.Cache
	log    *slog.Logger
}

// New creates the HTTP server and registers its routes.
func New(settings *conf.Settings, rtr *router.Router, ds datastore.Interface) *Server {
	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		router:   rtr,
		ds:       ds,
		cache:    cache.New(30*time.Second, time.Minute),
		log:      logging.ForService("httpcontroller"),
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.initMiddleware()
	s.initRoutes()
	return s
}

func (s *Server) initMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// the upgrade endpoint must not pass through the gzip writer
			return c.Path() == "/ws"
		},
	}))
	s.Echo.Use(s.requestLogger())
}

// requestLogger logs each request through the structured logger instead of
// echo's own format.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if !s.Settings.WebServer.Debug && v.URI == "/api/v1/health" {
				return nil
			}
			s.log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote", c.RealIP())
			return nil
		},
	})
}

// Start runs the listener until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.Echo.Start(":" + s.Settings.WebServer.Port)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("web server listening", "port", s.Settings.WebServer.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}
