package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CatalogHealth describes the upstream catalog as seen by this process.
type CatalogHealth struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Breaker    string `json:"breaker,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string        `json:"status"`
	Catalog CatalogHealth `json:"catalog"`
}

func (s *Server) healthCheck(c echo.Context) error {
	catalog := CatalogHealth{
		Name:       s.catalog.Name(),
		Configured: s.catalog.IsConfigured(),
	}

	status := "ok"
	if b, ok := s.catalog.(breakerState); ok {
		catalog.Breaker = b.State()
		if catalog.Breaker == "open" {
			status = "degraded"
		}
	}
	if !catalog.Configured {
		status = "degraded"
	}

	return c.JSON(http.StatusOK, HealthResponse{Status: status, Catalog: catalog})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":         s.sessions.Len(),
		"websocketClients": s.hub.ClientCount(),
		"catalog":          s.catalog.Name(),
		"idleTimeout":      s.cfg.Session.IdleTimeout.String(),
	})
}
