// Package v1 provides the HTTP handlers for the lectern API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tzhao11/lectern/internal/domain"
	"github.com/tzhao11/lectern/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Processing API
	e.POST("/v1/lectures/process", h.ProcessLecture)
	e.GET("/v1/lectures/stream", h.StreamLecture)

	// History API
	e.GET("/v1/history", h.ListHistory)
	e.GET("/v1/history/:record_id", h.GetRecord)
	e.DELETE("/v1/history/:record_id", h.DeleteRecord)

	// Study material API
	e.POST("/v1/history/:record_id/study", h.GenerateStudySet)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorResponse maps domain errors onto HTTP status codes.
func errorResponse(c echo.Context, err error) error {
	var (
		invalidRef *domain.InvalidReferenceError
		notFound   *domain.NotFoundError
		partial    *domain.PartialFailureError
		adapter    *domain.AdapterError
	)
	switch {
	case errors.As(err, &invalidRef):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &partial), errors.As(err, &adapter):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
