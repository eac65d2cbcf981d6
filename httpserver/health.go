package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterHealthRoutes() {
	s.Router.GET("/healthcheck", s.healthCheck)
}

// healthCheck godoc
// @Summary Health Check
// @Description Check if server is alive and report upstream configuration
// @Tags health
// @Success 200 {object} APIResponse
// @Router /healthcheck [get]
func (s *Server) healthCheck(c echo.Context) error {
	return writeSuccess(c, http.StatusOK, map[string]interface{}{
		"status":            "OK",
		"catalogConfigured": s.Catalog != nil && s.Catalog.Configured(),
		"backendMode":       s.Config.Backend.Mode,
		"backendUrl":        s.Config.Backend.PublicURL,
	})
}
