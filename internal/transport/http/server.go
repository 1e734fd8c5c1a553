// Package http provides the HTTP server for the lectern service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tzhao11/lectern/internal/service"
	v1 "github.com/tzhao11/lectern/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server. It serves the processing
// API (batch and SSE streaming), history, and study material generation.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	return e
}
