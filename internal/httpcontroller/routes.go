package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thermalab/thermal-ar-go/internal/buildinfo"
	"github.com/thermalab/thermal-ar-go/internal/datastore"
)

const sessionsCacheKey = "sessions"

// initRoutes registers all HTTP endpoints.
func (s *Server) initRoutes() {
	s.Echo.GET("/ws", s.router.ServeWS)
	s.Echo.GET("/", s.handleStatus)

	v1 := s.Echo.Group("/api/v1")
	v1.GET("/stats", s.handleStats)
	v1.GET("/sessions", s.handleSessions)
	v1.GET("/health", s.handleHealth)
}

// handleStatus reports the server identity and connection counts. The
// operator dashboard polls this.
func (s *Server) handleStatus(c echo.Context) error {
	devices, viewers := s.router.Hub().Counts()
	return c.JSON(http.StatusOK, map[string]any{
		"server":      s.Settings.Main.Name,
		"version":     buildinfo.String(),
		"status":      "running",
		"devices":     devices,
		"viewers":     viewers,
		"device_list": s.router.DeviceStatuses(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.router.StatsSnapshot())
}

// handleSessions lists finalized recording sessions from the index. Results
// are cached briefly, the index only changes when a recording stops.
func (s *Server) handleSessions(c echo.Context) error {
	if cached, found := s.cache.Get(sessionsCacheKey); found {
		return c.JSON(http.StatusOK, cached)
	}

	sessions, err := s.ds.ListSessions(100)
	if err != nil {
		s.log.Error("failed to list sessions", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "session index unavailable")
	}
	if sessions == nil {
		sessions = []datastore.Session{}
	}

	s.cache.SetDefault(sessionsCacheKey, sessions)
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
